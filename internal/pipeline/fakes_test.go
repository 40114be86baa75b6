package pipeline

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/DeafMist/intel-radar/backend/internal/llm"
	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/retrieval"
)

const (
	callClassify   = "classify"
	callSummarize  = "summarize"
	callSynthesize = "synthesize"
)

type chatFunc func(ctx context.Context, messages []llm.Message) (llm.Reply, error)

// fakeLLM dispatches on the system prompt so one fake serves every stage.
type fakeLLM struct {
	classify   chatFunc
	summarize  chatFunc
	synthesize chatFunc

	mu    sync.Mutex
	calls map[string]int
	seen  map[string][][]llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (llm.Reply, error) {
	kind := callKind(messages)

	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
		f.seen = map[string][][]llm.Message{}
	}
	f.calls[kind]++
	f.seen[kind] = append(f.seen[kind], messages)
	f.mu.Unlock()

	var fn chatFunc
	switch kind {
	case callClassify:
		fn = f.classify
	case callSummarize:
		fn = f.summarize
	case callSynthesize:
		fn = f.synthesize
	}
	if fn == nil {
		return llm.Reply{}, nil
	}
	return fn(ctx, messages)
}

func (f *fakeLLM) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeLLM) messages(kind string) [][]llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[kind]
}

func callKind(messages []llm.Message) string {
	if len(messages) == 0 {
		return ""
	}
	switch messages[0].Content {
	case classifySystemPrompt:
		return callClassify
	case summarizeSystemPrompt:
		return callSummarize
	case synthesizeSystemPrompt:
		return callSynthesize
	}
	return ""
}

func reply(text string) chatFunc {
	return func(context.Context, []llm.Message) (llm.Reply, error) {
		return llm.Reply{Content: text}, nil
	}
}

func failing(err error) chatFunc {
	return func(context.Context, []llm.Message) (llm.Reply, error) {
		return llm.Reply{}, err
	}
}

// fakeRetrieval records calls and answers from the configured funcs.
type fakeRetrieval struct {
	search  func(query, topic string) ([]models.SearchResult, error)
	extract func(urls []string) ([]retrieval.Page, error)
	crawl   func(ctx context.Context, url string) ([]retrieval.Page, error)

	mu       sync.Mutex
	searches []string
	extracts [][]string
	crawls   []string
}

func (f *fakeRetrieval) Search(_ context.Context, query, topic string, _ int) ([]models.SearchResult, error) {
	f.mu.Lock()
	f.searches = append(f.searches, topic)
	f.mu.Unlock()
	if f.search == nil {
		return nil, nil
	}
	return f.search(query, topic)
}

func (f *fakeRetrieval) Extract(_ context.Context, urls []string) ([]retrieval.Page, error) {
	f.mu.Lock()
	f.extracts = append(f.extracts, urls)
	f.mu.Unlock()
	if f.extract == nil {
		return nil, nil
	}
	return f.extract(urls)
}

func (f *fakeRetrieval) Crawl(ctx context.Context, url string, _, _ int) ([]retrieval.Page, error) {
	f.mu.Lock()
	f.crawls = append(f.crawls, url)
	f.mu.Unlock()
	if f.crawl == nil {
		return nil, nil
	}
	return f.crawl(ctx, url)
}

func (f *fakeRetrieval) calls() (searches, extracts, crawls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches), len(f.extracts), len(f.crawls)
}

// longText returns seed followed by uppercase filler derived from seed. Texts
// built from different seeds stay far apart under character similarity.
func longText(seed string) string {
	h := fnv.New64a()
	h.Write([]byte(seed))
	rng := rand.New(rand.NewPCG(h.Sum64(), 0))

	var b strings.Builder
	b.WriteString(seed)
	for b.Len() < 120 {
		b.WriteByte(' ')
		for n := 3 + rng.IntN(6); n > 0; n-- {
			b.WriteByte(byte('A' + rng.IntN(26)))
		}
	}
	return b.String()
}
