package devserver

import "net/http"

type settingsRequest struct {
	Theme                *string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Language             *string `json:"language" validate:"omitempty,min=2,max=8"`
	DateFormat           *string `json:"date_format" validate:"omitempty,oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
	BudgetAlertThreshold *int    `json:"budget_alert_threshold" validate:"omitempty,min=0,max=100"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, http.StatusOK, s.store.Settings(userIDFrom(r.Context())))
}

// handlePutSettings updates the fields present in the body.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !s.decode(w, r, &req) {
		return
	}

	st := s.store.UpdateSettings(userIDFrom(r.Context()), func(st *Settings) {
		if req.Theme != nil {
			st.Theme = *req.Theme
		}
		if req.Language != nil {
			st.Language = *req.Language
		}
		if req.DateFormat != nil {
			st.DateFormat = *req.DateFormat
		}
		if req.BudgetAlertThreshold != nil {
			st.BudgetAlertThreshold = *req.BudgetAlertThreshold
		}
	})

	s.reply(w, r, http.StatusOK, st)
}
