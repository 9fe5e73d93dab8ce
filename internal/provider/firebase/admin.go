package firebase

import (
	"context"
	"sync"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/kuitang/authseed/internal/errs"
)

// AdminClient is the subset of the Firebase Admin SDK the pipeline uses.
// *fbauth.Client satisfies it.
type AdminClient interface {
	CustomToken(ctx context.Context, uid string) (string, error)
	GetUser(ctx context.Context, uid string) (*fbauth.UserRecord, error)
}

// Admin SDK initialization is process-wide and performed at most once.
// Concurrent first-time initializers race on the lock; the loser observes
// the winner's client and no-ops.
var (
	adminMu     sync.Mutex
	adminClient AdminClient
)

// ResetForTesting clears the process-wide admin client so the next
// authenticate call re-initializes it.
func ResetForTesting() {
	adminMu.Lock()
	adminClient = nil
	adminMu.Unlock()
}

func (s *Strategy) admin(ctx context.Context, cfg *Config) (AdminClient, error) {
	adminMu.Lock()
	defer adminMu.Unlock()
	if adminClient != nil {
		return adminClient, nil
	}
	construct := s.newAdmin
	if construct == nil {
		construct = newAdminClient
	}
	client, err := construct(ctx, cfg)
	if err != nil {
		return nil, err
	}
	adminClient = client
	return client, nil
}

// newAdminClient parses the service-account credential and constructs the
// signing client.
func newAdminClient(ctx context.Context, cfg *Config) (AdminClient, error) {
	blob, err := cfg.serviceAccountJSON()
	if err != nil {
		return nil, errs.Wrap(errs.AuthenticationFailed, "read service account credential", err)
	}
	key, err := parseServiceAccount(blob)
	if err != nil {
		return nil, err
	}
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = key.ProjectID
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(blob))
	if err != nil {
		return nil, errs.Wrap(errs.AuthenticationFailed, "initialize admin SDK", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.AuthenticationFailed, "construct admin auth client", err)
	}
	return client, nil
}
