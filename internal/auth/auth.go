// Package auth resolves the Gemini API key for the agent.
package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// defaultSSMParam is the Parameter Store path used when no override is set.
const defaultSSMParam = "/memento/prod/gemini-api-key"

// GetAPIKey retrieves the Gemini API key from available sources.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. SSM Parameter Store (path from MEMENTO_SSM_API_KEY_PARAM, decrypted)
//
// ssmClient may be nil when running without AWS credentials; then only the
// environment variable is consulted.
func GetAPIKey(ctx context.Context, ssmClient *ssm.Client) (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	if ssmClient == nil {
		return "", fmt.Errorf("API key not found: set GEMINI_API_KEY or configure SSM access")
	}

	paramName := os.Getenv("MEMENTO_SSM_API_KEY_PARAM")
	if paramName == "" {
		paramName = defaultSSMParam
	}

	result, err := ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("read API key from SSM %s: %w", paramName, err)
	}

	log.Debug().Str("param", paramName).Msg("Using API key from SSM Parameter Store")
	return *result.Parameter.Value, nil
}
