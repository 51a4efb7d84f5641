package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() *WaitlistSubmission {
	return &WaitlistSubmission{
		Name:     "Al",
		Email:    "A@B.COM",
		City:     "NYC",
		Platform: PlatformIOS,
	}
}

func TestValidate_AcceptsMinimalSubmission(t *testing.T) {
	require.NoError(t, Validate(validSubmission()))
}

func TestValidate_RejectsEachBrokenRule(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*WaitlistSubmission)
	}{
		{FieldName, func(s *WaitlistSubmission) { s.Name = "A" }},
		{FieldEmail, func(s *WaitlistSubmission) { s.Email = "not-an-email" }},
		{FieldCity, func(s *WaitlistSubmission) { s.City = "N" }},
		{FieldPlatform, func(s *WaitlistSubmission) { s.Platform = "windows" }},
		{FieldPlatform, func(s *WaitlistSubmission) { s.Platform = "" }},
		{FieldHoneypot, func(s *WaitlistSubmission) { s.Honeypot = "spam" }},
	}

	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(sub)

			err := Validate(sub)
			require.Error(t, err)

			msgs := FieldMessages(err)
			assert.Contains(t, msgs, tc.field)
			assert.Len(t, msgs, 1)
		})
	}
}

func TestValidate_UniversityCompanyIsFree(t *testing.T) {
	sub := validSubmission()
	sub.UniversityCompany = "x"
	assert.NoError(t, Validate(sub))
}

func TestValidate_NilSubmission(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestValidateField_UsesStructRules(t *testing.T) {
	assert.Error(t, ValidateField(FieldName, "A"))
	assert.NoError(t, ValidateField(FieldName, "Al"))
	assert.Error(t, ValidateField(FieldEmail, "nope"))
	assert.NoError(t, ValidateField(FieldEmail, "a@b.com"))
	assert.Error(t, ValidateField(FieldPlatform, "linux"))
	assert.NoError(t, ValidateField(FieldPlatform, PlatformBoth))

	// Honeypot and rule-less fields are never validated on their own.
	assert.NoError(t, ValidateField(FieldHoneypot, "filled by a bot"))
	assert.NoError(t, ValidateField(FieldUniversityCompany, ""))
	assert.NoError(t, ValidateField("unknown", "whatever"))
}

func TestFieldMessages_NonValidationError(t *testing.T) {
	assert.Empty(t, FieldMessages(nil))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.COM "))
}
