// Package store persists synthesized documents to Elasticsearch so that
// curated sets and study plans survive cache expiry and restarts.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/studysearch/internal/config"
	"github.com/jonesrussell/studysearch/internal/domain"
	"github.com/jonesrussell/studysearch/internal/logger"
)

// Archive persists synthesized documents. Persistence is best effort: the
// pipeline reports its result to the caller whether or not the write
// succeeds.
type Archive interface {
	SaveCuration(ctx context.Context, principal string, set *domain.CuratedResourceSet) error
	SavePlan(ctx context.Context, principal, subject, examDate string, plan *domain.StudyPlan) error
	Health(ctx context.Context) error
}

// document is the indexed shape shared by both document kinds.
type document struct {
	Kind      string    `json:"kind"` // curation or plan
	Principal string    `json:"principal,omitempty"`
	Subject   string    `json:"subject"`
	ExamDate  string    `json:"exam_date,omitempty"`
	Body      any       `json:"body"`
	StoredAt  time.Time `json:"stored_at"`
}

// Client is an Archive backed by Elasticsearch.
type Client struct {
	esClient *es.Client
	index    string
	logger   logger.Logger
}

// NewClient creates an Elasticsearch-backed archive and verifies the
// connection.
func NewClient(cfg *config.StoreConfig, log logger.Logger) (*Client, error) {
	addresses := []string{cfg.URL}
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		addresses = []string{"http://" + cfg.URL}
	}

	clientConfig := es.Config{
		Addresses: addresses,
	}
	if cfg.Username != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	esClient, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	client := &Client{
		esClient: esClient,
		index:    cfg.Index,
		logger:   log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", err)
	}

	return client, nil
}

// Health verifies the Elasticsearch connection.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.esClient.Ping(c.esClient.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch ping failed: %s", string(body))
	}

	return nil
}

// SaveCuration indexes a curated resource set.
func (c *Client) SaveCuration(ctx context.Context, principal string, set *domain.CuratedResourceSet) error {
	doc := document{
		Kind:      "curation",
		Principal: principal,
		Subject:   set.Subject,
		Body:      set,
		StoredAt:  time.Now().UTC(),
	}
	return c.indexDocument(ctx, docID("curation", principal, set.Subject, ""), &doc)
}

// SavePlan indexes a study plan.
func (c *Client) SavePlan(ctx context.Context, principal, subject, examDate string, plan *domain.StudyPlan) error {
	doc := document{
		Kind:      "plan",
		Principal: principal,
		Subject:   subject,
		ExamDate:  examDate,
		Body:      plan,
		StoredAt:  time.Now().UTC(),
	}
	return c.indexDocument(ctx, docID("plan", principal, subject, examDate), &doc)
}

func (c *Client) indexDocument(ctx context.Context, id string, doc *document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := c.esClient.Index(
		c.index,
		bytes.NewReader(payload),
		c.esClient.Index.WithContext(ctx),
		c.esClient.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index returned error [%d]: %s", res.StatusCode, string(body))
	}

	c.logger.Debug("Document indexed",
		logger.String("index", c.index),
		logger.String("id", id),
		logger.String("kind", doc.Kind),
	)
	return nil
}

// docID derives a stable document identifier so repeated synthesis for the
// same request overwrites instead of accumulating duplicates.
func docID(kind, principal, subject, examDate string) string {
	parts := []string{kind, principal, strings.ToLower(strings.TrimSpace(subject))}
	if examDate != "" {
		parts = append(parts, examDate)
	}
	return strings.Join(parts, ":")
}
