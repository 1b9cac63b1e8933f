package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
)

// Sets the custom "role" claim used for mentor gating. Run with service
// account credentials (GOOGLE_APPLICATION_CREDENTIALS).
func main() {
	uid := flag.String("uid", "", "target firebase uid")
	role := flag.String("role", "learner", "role to assign: mentor, learner, or both")
	flag.Parse()
	if *uid == "" {
		log.Fatal("uid is required: -uid=xxxxx")
	}
	switch *role {
	case "mentor", "learner", "both":
	default:
		log.Fatalf("invalid role %q: must be mentor, learner, or both", *role)
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil)
	if err != nil {
		log.Fatalf("firebase.NewApp: %v", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		log.Fatalf("app.Auth: %v", err)
	}

	claims := map[string]interface{}{
		"role": *role,
	}

	if err := authClient.SetCustomUserClaims(ctx, *uid, claims); err != nil {
		log.Fatalf("SetCustomUserClaims: %v", err)
	}

	fmt.Printf("ok: role %q set for %s\n", *role, *uid)
}
