package backend

import (
	"os"

	"github.com/octue/octue-sdk-go/pkg/errs"
)

// EnvCredentialsProvider resolves credentials from the process
// environment. It is the default provider; a deployment that sources
// credentials from a secret manager supplies its own CredentialsProvider
// instead.
type EnvCredentialsProvider struct{}

func (EnvCredentialsProvider) Credentials(sourceEnvVar string) (string, error) {
	if sourceEnvVar == "" {
		return "", nil
	}
	val, ok := os.LookupEnv(sourceEnvVar)
	if !ok {
		return "", errs.B().
			Code(errs.FailedPrecondition).
			Msgf("credentials environment variable %q is not set", sourceEnvVar).
			Err()
	}
	return val, nil
}
