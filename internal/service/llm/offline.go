package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// OfflineProvider is a deterministic stand-in used in dev and tests.
// It derives its output from a hash of the prompt so repeated calls
// with the same input produce the same text.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (p *OfflineProvider) Name() string {
	return "offline"
}

func (p *OfflineProvider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "offline")
}

var offlineSentences = []string{
	"지역 주민 여러분의 목소리를 꾸준히 듣고 있습니다.",
	"현장에서 확인한 내용을 바탕으로 소통을 이어가겠습니다.",
	"우리 지역의 오늘을 꼼꼼히 기록하고 있습니다.",
	"작은 의견 하나도 소중하게 살피고 있습니다.",
	"이웃과 함께하는 일상의 순간을 나누고자 합니다.",
	"앞으로도 지역 소식을 성실하게 전하겠습니다.",
	"주민들과 나눈 대화에서 많은 것을 배우고 있습니다.",
	"동네 곳곳의 이야기에 귀를 기울이고 있습니다.",
}

// Complete returns six sentences chosen deterministically from the
// prompt hash.
func (p *OfflineProvider) Complete(ctx context.Context, req *Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("offline provider: %w", err)
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(req.System))
	_, _ = h.Write([]byte(req.Prompt))
	seed := h.Sum64()

	var b strings.Builder
	for i := 0; i < 6; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		idx := (seed + uint64(i)*7) % uint64(len(offlineSentences))
		b.WriteString(offlineSentences[idx])
	}
	return b.String(), nil
}
