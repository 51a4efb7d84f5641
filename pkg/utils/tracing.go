package utils

const DefaultServiceName = "signal-waitlist"

func IsTracingEnabled() bool {
	enabled, _ := EnvBool("OTEL_TRACES_ENABLED")
	return enabled
}

func OTelServiceName() string {
	return EnvOr("OTEL_SERVICE_NAME", DefaultServiceName)
}
