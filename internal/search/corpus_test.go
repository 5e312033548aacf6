package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpusSearchLimit = 30

type topic struct {
	title   string
	phrase  string
	content string
}

var topics = []topic{
	{"Python Guide", "Python programming", "Python is a high-level programming language used for web development and data science."},
	{"Kubernetes Docs", "Kubernetes container", "Kubernetes is an open-source container orchestration platform that automates deployment and scaling."},
	{"React Tutorial", "React hooks", "React is a JavaScript library. React hooks and components enable building user interfaces."},
	{"Go Language", "golang concurrency", "Go is a statically typed language. In golang concurrency is achieved with goroutines and channels."},
	{"PostgreSQL Manual", "PostgreSQL relational", "PostgreSQL is an advanced relational database supporting JSON and full-text search."},
	{"Docker Handbook", "Docker images", "Docker enables building and shipping applications. Docker images are portable across environments."},
	{"Machine Learning", "machine learning", "Machine learning is a subset of AI. Machine learning algorithms learn patterns from data."},
	{"REST API Design", "REST endpoints", "REST is an architectural style. REST endpoints use HTTP methods and status codes."},
	{"Redis Cache", "Redis sessions", "Redis is an in-memory data store used for sessions and caching."},
	{"Terraform IaC", "Terraform infrastructure", "Terraform manages cloud infrastructure declaratively as code."},
	{"Prometheus Metrics", "Prometheus monitoring", "Prometheus is a monitoring system built on time-series metrics."},
	{"Git Workflow", "Git version", "Git is a distributed version control system tracking changes in source code."},
	{"Kafka Streams", "Apache Kafka", "Apache Kafka is a distributed event streaming platform handling high throughput."},
	{"Nginx Config", "Nginx proxy", "Nginx is a web server and reverse proxy that balances load and serves static files."},
	{"Cryptography Basics", "cryptography encryption", "Cryptography secures data. Cryptography encryption uses keys and algorithms."},
	{"Password Hashing", "password bcrypt", "Passwords must be hashed. Password hashing with bcrypt resists rainbow tables."},
	{"Backup Strategy", "backup recovery", "Backups protect against data loss. A backup recovery plan defines RTO and RPO."},
	{"Circuit Breaker", "circuit breaker", "A circuit breaker stops cascading failures and fails fast."},
	{"Feature Flags", "feature rollout", "Feature flags toggle functionality and allow a gradual feature rollout."},
	{"Distributed Tracing", "tracing spans", "Tracing follows requests across services. Tracing spans show latency breakdown."},
}

type corpusCase struct {
	query    string
	expected []uint32
}

// buildTopicCorpus returns two documents per topic, the title line and the body,
// plus one query per topic naming the documents that contain its phrase.
func buildTopicCorpus() ([]string, []corpusCase) {
	docs := make([]string, 0, 2*len(topics))
	var cases []corpusCase
	for _, tp := range topics {
		title := fmt.Sprintf("%s: notes on %s", tp.title, tp.phrase)
		docs = append(docs, title, tp.content)
		c := corpusCase{query: tp.phrase}
		for _, id := range []int{len(docs) - 2, len(docs) - 1} {
			if containsWords(docs[id], tp.phrase) {
				c.expected = append(c.expected, uint32(id))
			}
		}
		cases = append(cases, c)
	}
	return docs, cases
}

func containsWords(doc, phrase string) bool {
	lower := strings.ToLower(doc)
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		if !strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func TestTopicCorpus_SearchReturnsPhraseDocuments(t *testing.T) {
	docs, cases := buildTopicCorpus()
	idx := Construct(docs)
	require.Len(t, cases, len(topics))

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			require.NotEmpty(t, tc.expected)
			res := idx.Rank(Query{Input: tc.query, Limit: corpusSearchLimit})
			top := res.IDs[:len(tc.expected)]
			assert.ElementsMatch(t, tc.expected, top, "documents containing %q should rank first", tc.query)
		})
	}
}

func TestTopicCorpus_Invariants(t *testing.T) {
	docs, cases := buildTopicCorpus()
	idx := Construct(docs)

	queries := []string{"kafka", "kafak", "containr orchestration", "the", "data science", "zzz"}
	for _, tc := range cases {
		queries = append(queries, tc.query)
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			full := idx.Rank(Query{Input: q, Limit: corpusSearchLimit})
			assert.LessOrEqual(t, len(full.IDs), corpusSearchLimit)
			assert.False(t, full.Truncated)

			seen := make(map[uint32]bool)
			for _, id := range full.IDs {
				assert.False(t, seen[id], "document %d returned twice", id)
				seen[id] = true
			}

			for _, limit := range []int{1, 3, 5} {
				short := idx.Rank(Query{Input: q, Limit: limit})
				n := min(limit, len(full.IDs))
				assert.Equal(t, full.IDs[:n], short.IDs, "limit %d should return a prefix", limit)
			}
		})
	}
}

func BenchmarkConstruct(b *testing.B) {
	docs, _ := buildTopicCorpus()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Construct(docs)
	}
}

func BenchmarkSearch(b *testing.B) {
	docs, _ := buildTopicCorpus()
	idx := Construct(docs)
	for _, q := range []string{"machine learning", "containr orchestration", "apache kafk"} {
		b.Run(q, func(b *testing.B) {
			query := NewQuery(q)
			for i := 0; i < b.N; i++ {
				_ = idx.Search(query)
			}
		})
	}
}
