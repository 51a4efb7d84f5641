package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/akeren/signal-waitlist/pkg/intake"
	"github.com/akeren/signal-waitlist/pkg/schema"
)

type prompt struct {
	field    string
	label    string
	optional bool
}

var joinPrompts = []prompt{
	{field: schema.FieldName, label: "Name"},
	{field: schema.FieldEmail, label: "Email"},
	{field: schema.FieldCity, label: "City"},
	{field: schema.FieldUniversityCompany, label: "University / company (optional)", optional: true},
	{field: schema.FieldPlatform, label: "Platform [" + strings.Join(schema.Platforms, "/") + "] (" + schema.DefaultPlatform + ")", optional: true},
}

// runJoin walks the user through the form, validating each answer before moving on.
func runJoin(ctx context.Context, in io.Reader, out io.Writer, form *intake.Form) (string, error) {
	scanner := bufio.NewScanner(in)

	for _, p := range joinPrompts {
		for {
			fmt.Fprintf(out, "%s: ", p.label)
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.ErrUnexpectedEOF
			}

			answer := strings.TrimSpace(scanner.Text())
			if answer == "" && p.optional {
				break
			}

			if err := form.Set(p.field, answer); err != nil {
				return "", err
			}
			if err := form.Blur(p.field); err != nil {
				fmt.Fprintf(out, "  ! %s\n", form.Errors()[p.field])
				continue
			}
			break
		}
	}

	id, err := form.Submit(ctx)
	if err != nil {
		if errors.Is(err, intake.ErrInvalidForm) {
			for field, msg := range form.Errors() {
				fmt.Fprintf(out, "  ! %s: %s\n", field, msg)
			}
			return "", err
		}
		fmt.Fprintf(out, "%s\n", form.Errors()[schema.FieldEmail])
		return "", err
	}

	fmt.Fprintf(out, "You're on the list! Reference: %s\n", id)
	return id, nil
}
