// Command token-generator mints a signed access token for local development.
// The API never issues tokens itself; they normally come from the external
// identity provider sharing the signing secret.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/spf13/pflag"
)

func main() {
	userID := pflag.String("user-id", "", "user UUID to put in the token subject (random if empty)")
	secret := pflag.String("secret", "", "signing secret (defaults to TODO_AUTH_JWT_SECRET / JWT_SECRET)")
	lifetime := pflag.Int("lifetime", 60, "token lifetime in minutes")
	issuer := pflag.String("issuer", "", "optional iss claim")
	audience := pflag.String("audience", "", "optional aud claim")
	pflag.Parse()

	token, id, err := generate(*userID, authConfig(*secret, *lifetime, *issuer, *audience))
	if err != nil {
		fmt.Fprintf(os.Stderr, "token-generator: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user id: %s\n", id)
	fmt.Println(token)
}

func authConfig(secret string, lifetime int, issuer, audience string) config.AuthConfig {
	if secret == "" {
		secret = firstEnv("TODO_AUTH_JWT_SECRET", "JWT_SECRET", "BETTER_AUTH_SECRET")
	}
	return config.AuthConfig{
		JWTSecret:            secret,
		TokenLifetimeMinutes: lifetime,
		Issuer:               issuer,
		Audience:             audience,
	}
}

func generate(rawUserID string, cfg config.AuthConfig) (string, uuid.UUID, error) {
	userID := uuid.New()
	if rawUserID != "" {
		var err error
		userID, err = uuid.Parse(rawUserID)
		if err != nil {
			return "", uuid.Nil, fmt.Errorf("invalid --user-id: %w", err)
		}
	}

	svc, err := auth.NewJWTService(cfg)
	if err != nil {
		return "", uuid.Nil, err
	}

	token, err := svc.GenerateToken(context.Background(), userID)
	if err != nil {
		return "", uuid.Nil, err
	}
	return token, userID, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
