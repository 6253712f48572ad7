package services

import (
	"context"
	"io"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
)

const importPath = "/transactions/import"

// TransactionService covers the transaction operations the CLI needs.
type TransactionService interface {
	// Import uploads a CSV statement. A 401 is returned as is; the upload
	// is never resubmitted after a refresh.
	Import(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error)
}

type transactionService struct {
	client api.Client
}

func NewTransactionService(client api.Client) TransactionService {
	return &transactionService{client: client}
}

func (s *transactionService) Import(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error) {
	form, err := api.FileForm("file", filename, r)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Upload(ctx, importPath, form)
	if err != nil {
		return nil, err
	}

	var out models.ImportResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
