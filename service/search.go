package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	model "github.com/servana/action-center/models"
)

const searchIndex = "action_items"

// indexItem mirrors an item into Elasticsearch for the dashboard's global
// search. Indexing is best-effort: a search outage must never fail the write
// that triggered it.
func (s *ActionCenterService) indexItem(item *model.ActionItem) {
	if s.esClient == nil || item == nil {
		return
	}

	doc := map[string]interface{}{
		"id":          item.ID,
		"queue":       item.Queue,
		"ref_type":    item.RefType,
		"ref_id":      item.RefID,
		"title":       item.Title,
		"who_name":    item.WhoName,
		"who_phone":   item.WhoPhone,
		"reason_code": item.ReasonCode,
		"status":      item.Status,
		"opened_at":   item.OpenedAt.UTC(),
		"updated_at":  time.Now().UTC(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		log.Printf("[indexItem] failed to marshal %s: %v", item.ID, err)
		return
	}

	res, err := s.esClient.Index(
		searchIndex,
		bytes.NewReader(body),
		s.esClient.Index.WithDocumentID(item.ID),
		s.esClient.Index.WithContext(context.Background()),
	)
	if err != nil {
		log.Printf("[indexItem] indexing error for %s: %v", item.ID, err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Printf("[indexItem] indexing failed for %s: %s", item.ID, res.String())
	}
}

// SearchItems runs a cross-queue free-text query against the search index.
func (s *ActionCenterService) SearchItems(query string) ([]map[string]interface{}, error) {
	if s.esClient == nil {
		return nil, fmt.Errorf("elasticsearch client is not initialized")
	}

	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"id", "title", "who_name", "who_phone", "ref_id", "reason_code"},
			},
		},
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(context.Background()),
		s.esClient.Search.WithIndex(searchIndex),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hitsMap, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits structure in search response")
	}
	hitsArray, ok := hitsMap["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits array in search response")
	}

	var items []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		items = append(items, source)
	}
	return items, nil
}
