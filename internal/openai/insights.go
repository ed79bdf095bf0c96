package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

const (
	// DefaultChatModel is used for insight extraction when none is configured.
	DefaultChatModel = openai.GPT4oMini
	// MaxInsightSample caps how many panels are described in one prompt.
	MaxInsightSample = 50

	insightSystemMessage = "당신은 설문 패널 데이터를 분석하는 데이터 분석 전문가입니다. 항상 유효한 JSON 객체 하나로만 응답합니다."
)

var (
	ErrNoPanels       = errors.New("no panels to analyze")
	ErrEmptyResponse  = errors.New("model returned no content")
	ErrInvalidInsight = errors.New("model returned invalid insight JSON")
)

// ChatAPI is the subset of the OpenAI client used for insights.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// InsightClient asks a chat model for the hidden traits of a panel group.
type InsightClient struct {
	api   ChatAPI
	model string
}

func NewInsightClient(apiKey, model string) *InsightClient {
	return NewInsightClientWithAPI(openai.NewClient(apiKey), model)
}

func NewInsightClientWithAPI(api ChatAPI, model string) *InsightClient {
	if model == "" {
		model = DefaultChatModel
	}
	return &InsightClient{api: api, model: model}
}

// GenerateInsights describes up to MaxInsightSample panels to the model and
// decodes its JSON answer.
func (c *InsightClient) GenerateInsights(ctx context.Context, query string, panels []domain.PanelView) (*domain.Insights, error) {
	if len(panels) == 0 {
		return nil, ErrNoPanels
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: insightSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: InsightPrompt(query, panels)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	var insights domain.Insights
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Choices[0].Message.Content)), &insights); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInsight, err)
	}
	return &insights, nil
}

// InsightPrompt renders the user message for a panel group.
func InsightPrompt(query string, panels []domain.PanelView) string {
	if strings.TrimSpace(query) == "" {
		query = "사용자 질의 없음"
	}
	sample := panels[:min(MaxInsightSample, len(panels))]

	var b strings.Builder
	b.WriteString("검색된 패널 그룹을 분석하여 사용자가 명시하지 않은 숨겨진 공통 특성과 패턴을 찾아주세요.\n\n")
	fmt.Fprintf(&b, "## 원래 검색 질의\n\"%s\"\n\n", query)
	fmt.Fprintf(&b, "## 검색된 패널 데이터 (총 %d명 중 %d명 샘플)\n", len(panels), len(sample))
	for _, p := range sample {
		fmt.Fprintf(&b, "- ID %s: %d세, %s, %s, %s\n", p.ID, p.Age, p.Gender, p.Location, p.Job)
	}
	b.WriteString(`
## 분석 요구사항
1. 검색 조건에 없지만 결과 그룹에서 두드러지는 공통 특성
2. 이 그룹의 행동 패턴 추론
3. 추가로 세분화할 수 있는 기준 제안

## 응답 형식 (JSON)
{
  "hidden_patterns": [{"feature": "education", "value": "대졸", "percentage": 80, "insight": "..."}],
  "behavioral_insights": ["..."],
  "segmentation_suggestions": ["..."],
  "statistics": {"gender_ratio": {"남성": 55, "여성": 45}},
  "summary": "..."
}`)
	return b.String()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
