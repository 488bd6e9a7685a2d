package mindmap

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const explanationCacheSize = 256

// ExplainFunc fetches an explanation of topic for a document.
type ExplainFunc func(ctx context.Context, documentID, topic string) (string, error)

// Explainer caches explanations per document and topic so re-selecting a
// node does not spend another generation.
type Explainer struct {
	fetch ExplainFunc
	cache *lru.Cache[string, string]
}

func NewExplainer(fetch ExplainFunc) (*Explainer, error) {
	if fetch == nil {
		return nil, fmt.Errorf("explain func is required")
	}
	cache, err := lru.New[string, string](explanationCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create explanation cache: %w", err)
	}
	return &Explainer{fetch: fetch, cache: cache}, nil
}

func (e *Explainer) Explain(ctx context.Context, documentID, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	key := documentID + "\x00" + topic
	if v, ok := e.cache.Get(key); ok {
		return v, nil
	}
	v, err := e.fetch(ctx, documentID, topic)
	if err != nil {
		return "", err
	}
	e.cache.Add(key, v)
	return v, nil
}

func (e *Explainer) Len() int {
	return e.cache.Len()
}

// AskMessage is the chat prompt that hands a topic over to the chat view.
func AskMessage(topic string) string {
	return fmt.Sprintf("Please explain more about %q in the context of our document.", strings.TrimSpace(topic))
}
