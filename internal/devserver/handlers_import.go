package devserver

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type importResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// handleImport accepts a CSV statement in the "file" form field. Rows are
// date (YYYY-MM-DD), amount and an optional category; a leading header row
// is ignored and malformed rows are counted as skipped.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	f, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.fail(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close()

	txs, skipped, err := parseStatement(f)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "unreadable statement")
		return
	}

	s.store.AddTransactions(userIDFrom(r.Context()), txs)
	s.reply(w, r, http.StatusOK, importResponse{Imported: len(txs), Skipped: skipped})
}

func parseStatement(r io.Reader) ([]Transaction, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		txs     []Transaction
		skipped int
	)
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped++
			continue
		}
		if err != nil {
			return nil, 0, err
		}

		if row == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}

		tx, ok := parseRow(rec)
		if !ok {
			skipped++
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped, nil
}

func parseRow(rec []string) (Transaction, bool) {
	if len(rec) < 2 {
		return Transaction{}, false
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
	if err != nil {
		return Transaction{}, false
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return Transaction{}, false
	}

	tx := Transaction{Date: date, Amount: amount}
	if len(rec) > 2 {
		tx.Category = strings.TrimSpace(rec[2])
	}
	return tx, true
}
