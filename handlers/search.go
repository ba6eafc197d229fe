package handlers

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"clinic-management/models"
	"clinic-management/utils"
)

// maxSearchWindow is elasticsearch's default index.max_result_window.
const maxSearchWindow = 10000

// PatientSource is the part of the record store a search reads from.
type PatientSource interface {
	Patients() []models.Patient
	SearchPatients(query string) []models.Patient
}

// PatientSearch answers free-text patient queries. When an elasticsearch
// index is configured its hits select which store patients match; the store
// stays the source of truth for the records and their order. A missing index
// or a failing cluster falls back to the store's own matching.
type PatientSearch struct {
	es     utils.ElasticsearchClient
	index  string
	source PatientSource
	logger *zap.Logger
}

func NewPatientSearch(es utils.ElasticsearchClient, index string, source PatientSource, logger *zap.Logger) *PatientSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientSearch{es: es, index: index, source: source, logger: logger}
}

func (s *PatientSearch) Search(ctx context.Context, query string) []models.Patient {
	if s.es == nil || strings.TrimSpace(query) == "" {
		return s.source.SearchPatients(query)
	}

	patients := s.source.Patients()
	if len(patients) == 0 {
		return []models.Patient{}
	}

	size := len(patients)
	if size > maxSearchWindow {
		return s.source.SearchPatients(query)
	}

	hits, err := s.es.Search(ctx, s.index, patientQuery(query, size))
	if err != nil {
		s.logger.Warn("patient index search failed, using store", zap.Error(err))
		return s.source.SearchPatients(query)
	}
	if hits == nil {
		return s.source.SearchPatients(query)
	}

	ids := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(hit, &doc); err != nil || doc.ID == "" {
			s.logger.Warn("skipping unreadable patient document", zap.Error(err))
			continue
		}
		ids[doc.ID] = struct{}{}
	}

	matches := []models.Patient{}
	for _, p := range patients {
		if _, ok := ids[p.ID]; ok {
			matches = append(matches, p)
		}
	}
	return matches
}

// patientQuery matches query as a case-insensitive substring of name or phone.
func patientQuery(query string, size int) map[string]interface{} {
	pattern := "*" + escapeWildcard(query) + "*"
	return map[string]interface{}{
		"size":    size,
		"_source": []string{"id"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"wildcard": map[string]interface{}{
						"name.keyword": map[string]interface{}{"value": pattern, "case_insensitive": true},
					}},
					map[string]interface{}{"wildcard": map[string]interface{}{
						"phone.keyword": map[string]interface{}{"value": pattern, "case_insensitive": true},
					}},
				},
				"minimum_should_match": 1,
			},
		},
	}
}

func escapeWildcard(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}
