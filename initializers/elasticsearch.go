package initializers

import (
	"log"
	"os"

	"github.com/elastic/go-elasticsearch/v8"
)

// ConnectElasticsearch builds the search client from ELASTICSEARCH_URL.
// Search is an optional capability: with no URL configured the service runs
// without indexing and the search endpoint reports itself unavailable.
func ConnectElasticsearch() *elasticsearch.Client {
	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		log.Println("[ConnectElasticsearch] ELASTICSEARCH_URL not set, search disabled")
		return nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		log.Printf("[ConnectElasticsearch] failed to create client: %v", err)
		return nil
	}
	return client
}
