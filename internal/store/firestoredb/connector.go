// Package firestoredb is the Cloud Firestore backend and the connection
// setup for it.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"toy-catalog/internal/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var scopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/datastore",
}

// ErrCredentialsRejected means the service account could not produce an
// access token, usually because the private key does not parse.
var ErrCredentialsRejected = errors.New("firebase credentials rejected")

// ClientFactory builds a Firestore client from service-account settings.
type ClientFactory func(ctx context.Context, cfg config.FirebaseConfig) (*firestore.Client, error)

// Connector owns the process-wide Firestore client. The first successful
// Connect creates it and later calls return the same handle.
type Connector struct {
	cfg       config.FirebaseConfig
	logger    *zap.Logger
	newClient ClientFactory

	mu     sync.Mutex
	client *firestore.Client
}

func NewConnector(cfg config.FirebaseConfig, logger *zap.Logger) *Connector {
	return &Connector{cfg: cfg, logger: logger, newClient: NewClient}
}

// WithFactory replaces the client factory.
func (c *Connector) WithFactory(f ClientFactory) *Connector {
	c.newClient = f
	return c
}

func (c *Connector) Connect(ctx context.Context) (*firestore.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.logger.Debug("Reusing existing Firestore client")
		return c.client, nil
	}

	c.logger.Info("Connecting to Firestore", zap.String("project_id", c.cfg.ProjectID))

	client, err := c.newClient(ctx, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore: %w", err)
	}

	c.client = client
	c.logger.Info("Connected to Firestore", zap.String("project_id", c.cfg.ProjectID))
	return client, nil
}

// Close releases the client if one was created.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Credentials parses the service-account document built from cfg.
func Credentials(ctx context.Context, cfg config.FirebaseConfig) (*google.Credentials, error) {
	raw, err := cfg.ServiceAccountJSON()
	if err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account: %w", err)
	}
	return creds, nil
}

// NewClient is the default ClientFactory. It fetches a first access token
// so that a bad key fails here rather than on the first query, then
// initialises a Firebase app and opens its Firestore client. The token
// check is skipped when FIRESTORE_EMULATOR_HOST is set.
func NewClient(ctx context.Context, cfg config.FirebaseConfig) (*firestore.Client, error) {
	creds, err := Credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		if _, err := creds.TokenSource.Token(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCredentialsRejected, err)
		}
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open firestore client: %w", err)
	}
	return client, nil
}
