package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"orderconv/internal/config"
	"orderconv/internal/intake"
	gmailconnector "orderconv/internal/intake/gmail"
	imapconnector "orderconv/internal/intake/imap"
	"orderconv/internal/pipeline"
	"orderconv/internal/storage"
)

// Service polls the mailbox, converts new order documents and drops the
// exports under OutputDir/listener.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.ProcessingService
	connector intake.MailConnector
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{
		db:        db,
		cfg:       cfg,
		processor: pipeline.NewProcessingService(db, cfg),
	}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.ListenerIntervalSec) * time.Second
	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("listener cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.ListenerProvider))
	if s.connector == nil {
		conn, err := makeConnector(ctx, provider, s.cfg)
		if err != nil {
			return err
		}
		s.connector = conn
	}

	fetchService := intake.NewFetchService(s.db, s.cfg.RawMailDir, s.connector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.ListenerLabel, s.cfg.ListenerFetchMax)
	if err != nil {
		return err
	}

	processedDocs, processedLines, err := s.processor.ProcessPending(s.cfg.ListenerProcessBatch, provider)
	if err != nil {
		return err
	}

	exported := 0
	if s.cfg.ListenerAutoExport {
		exported, err = s.exportProcessed(provider)
		if err != nil {
			return err
		}
	}

	fmt.Printf("listener cycle done provider=%s fetched=%d stored=%d processed=%d lines=%d exported=%d\n",
		provider, fetchResult.Fetched, fetchResult.Stored, processedDocs, processedLines, exported)
	return nil
}

func (s *Service) exportProcessed(provider string) (int, error) {
	docs, err := s.db.ListOrderDocsByStatus("processed", 200)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, doc := range docs {
		if doc.Provider != provider {
			continue
		}
		rows, err := s.db.GetExportRows(doc.ID)
		if err != nil {
			return exported, err
		}
		if len(rows) == 0 {
			continue
		}
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", fmt.Sprintf("%d_%s.xlsx", doc.ID, sanitizeMessageID(doc.MessageID)))
		if err := pipeline.ExportRowsToXLSX(rows, outputPath); err != nil {
			return exported, err
		}
		if err := s.db.UpdateOrderDocStatus(doc.ID, "exported"); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

func makeConnector(ctx context.Context, provider string, cfg config.Config) (intake.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

// sanitizeMessageID makes a message-id safe to use as a filename part.
func sanitizeMessageID(input string) string {
	out := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '/', '\\', '|', '?', '*', ' ':
			return '_'
		}
		return r
	}, input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
