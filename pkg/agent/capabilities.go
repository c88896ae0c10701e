// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/maarifa/agentcore/pkg/cache"
	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/errors"
	"github.com/maarifa/agentcore/pkg/llm"
	"github.com/maarifa/agentcore/pkg/memory"
	"github.com/maarifa/agentcore/pkg/planner"
	"github.com/maarifa/agentcore/pkg/tools"
)

// System prompts for the LLM-backed capabilities. The assistant answers
// in the caller's language.
const (
	answerSystemPrompt = "أنت مساعد تعليمي ثنائي اللغة. أجب عن أسئلة الطلاب بدقة وإيجاز، بنفس لغة السؤال."
	planSystemPrompt   = "أنت مرشد أكاديمي. أنشئ خطة مذاكرة أسبوعية واقعية للموضوع المطلوب، بنفس لغة الطلب."
)

// VisionFunc is the external vision collaborator used by the
// damage-assessment capability. It receives already-validated images.
type VisionFunc func(ctx context.Context, images []tools.ImageRef, message string) (any, error)

// BuiltinDeps carries the collaborators the builtin capabilities close
// over.
type BuiltinDeps struct {
	Provider  llm.Provider
	Retriever *memory.Retriever
	Store     *cache.Store
	History   memory.History
	Audit     planner.AuditStore
	Vision    VisionFunc
	// HistoryWindow bounds the transcript turns sent to the provider.
	HistoryWindow int
}

// RegisterBuiltins installs the builtin capability set into the
// registry.
func RegisterBuiltins(reg *tools.Registry, deps BuiltinDeps) error {
	if deps.HistoryWindow <= 0 {
		deps.HistoryWindow = 10
	}

	defs := []tools.Definition{
		greetDefinition(),
		clarifyDefinition(),
		answerDefinition(deps),
		studyPlanDefinition(deps),
		searchCoursesDefinition(deps),
		assessDamageDefinition(deps),
		usageReportDefinition(deps),
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func greetDefinition() tools.Definition {
	return tools.Definition{
		Name: "greet",
		Description: tools.Description{
			AR: "يرحب بالمستخدم ويشرح قدرات المساعد.",
			EN: "Greets the user and explains what the assistant can do.",
		},
		Enabled: true,
		Handler: func(_ context.Context, _ map[string]any, tc *core.ToolContext) (any, error) {
			if tc != nil && tc.Locale == "en" {
				return "Hello! I can answer study questions, build study plans, and search courses. How can I help?", nil
			}
			return "أهلًا وسهلًا! أستطيع الإجابة عن أسئلتك الدراسية، وإعداد خطط المذاكرة، والبحث في الدورات. كيف أساعدك؟", nil
		},
	}
}

func clarifyDefinition() tools.Definition {
	return tools.Definition{
		Name: "clarify",
		Description: tools.Description{
			AR: "يطلب توضيحًا عندما يتعذر فهم الطلب.",
			EN: "Asks for clarification when the request cannot be understood.",
		},
		Params: []tools.ParamSpec{
			{Name: "fallback", Type: tools.TypeString, Description: "clarification prompt", Required: false},
		},
		Enabled: true,
		Handler: func(_ context.Context, params map[string]any, tc *core.ToolContext) (any, error) {
			if fallback, ok := params["fallback"].(string); ok && fallback != "" {
				return fallback, nil
			}
			if tc != nil && tc.Locale == "en" {
				return "I did not quite understand your request. Could you rephrase it?", nil
			}
			return "لم أفهم طلبك تمامًا، هل يمكنك التوضيح أكثر؟", nil
		},
	}
}

func answerDefinition(deps BuiltinDeps) tools.Definition {
	return tools.Definition{
		Name: "answer_question",
		Description: tools.Description{
			AR: "يجيب عن سؤال تعليمي عام.",
			EN: "Answers a general educational question.",
		},
		Params: []tools.ParamSpec{
			{Name: "message", Type: tools.TypeString, Description: "the user's question", Required: true},
		},
		Enabled:    true,
		Streamable: true,
		Handler: func(ctx context.Context, params map[string]any, tc *core.ToolContext) (any, error) {
			message, _ := params["message"].(string)

			if deps.Store != nil {
				if cached, hit := deps.Store.Response.Get(answerSystemPrompt, message); hit {
					return cached, nil
				}
			}

			messages := []llm.Message{{Role: llm.RoleSystem, Content: answerSystemPrompt}}
			messages = append(messages, historyMessages(ctx, deps, tc)...)
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

			resp, err := deps.Provider.Chat(ctx, llm.ChatRequest{Messages: messages})
			if err != nil {
				return nil, errors.Wrap(err)
			}

			if deps.Store != nil {
				deps.Store.Response.Set(answerSystemPrompt, message, resp.Content)
			}
			return resp.Content, nil
		},
	}
}

func studyPlanDefinition(deps BuiltinDeps) tools.Definition {
	return tools.Definition{
		Name: "generate_study_plan",
		Description: tools.Description{
			AR: "ينشئ خطة مذاكرة أسبوعية لموضوع معين.",
			EN: "Generates a weekly study plan for a topic.",
		},
		Params: []tools.ParamSpec{
			{Name: "message", Type: tools.TypeString, Description: "the planning request", Required: true},
			{Name: "weeks", Type: tools.TypeInteger, Description: "plan length in weeks", Required: false, Default: 4},
		},
		Enabled: true,
		Handler: func(ctx context.Context, params map[string]any, _ *core.ToolContext) (any, error) {
			message, _ := params["message"].(string)
			weeks := params["weeks"]

			prompt := fmt.Sprintf("%s\n\nعدد الأسابيع: %v", message, weeks)
			resp, err := deps.Provider.Chat(ctx, llm.ChatRequest{
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: planSystemPrompt},
					{Role: llm.RoleUser, Content: prompt},
				},
			})
			if err != nil {
				return nil, errors.Wrap(err)
			}
			return resp.Content, nil
		},
	}
}

func searchCoursesDefinition(deps BuiltinDeps) tools.Definition {
	return tools.Definition{
		Name: "search_courses",
		Description: tools.Description{
			AR: "يبحث في فهرس الدورات عن مواد مطابقة.",
			EN: "Searches the course catalog for matching material.",
		},
		Params: []tools.ParamSpec{
			{Name: "query", Type: tools.TypeString, Description: "the search query", Required: true},
			{Name: "limit", Type: tools.TypeInteger, Description: "maximum results", Required: false, Default: 5},
		},
		Enabled:   true,
		Cacheable: true,
		Handler: func(ctx context.Context, params map[string]any, _ *core.ToolContext) (any, error) {
			query, _ := params["query"].(string)
			limit := intParam(params["limit"], 5)

			if deps.Store != nil {
				if cached, hit := deps.Store.Retrieval.Get(query); hit {
					return cached, nil
				}
			}

			results, err := searchCourses(ctx, deps, query, limit)
			if err != nil {
				return nil, err
			}

			if deps.Store != nil {
				deps.Store.Retrieval.Set(query, results)
			}
			return results, nil
		},
	}
}

// searchCourses consults the vector retriever when configured and falls
// back to the LLM otherwise.
func searchCourses(ctx context.Context, deps BuiltinDeps, query string, limit int) (any, error) {
	if deps.Retriever != nil {
		hits, err := deps.Retriever.Retrieve(ctx, query, limit)
		if err != nil {
			return nil, errors.Wrap(err)
		}
		results := make([]map[string]any, 0, len(hits))
		for _, hit := range hits {
			results = append(results, map[string]any{
				"course_id": hit.Document.CourseID,
				"text":      hit.Document.Text,
				"score":     hit.Score,
			})
		}
		return results, nil
	}

	resp, err := deps.Provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "اقترح دورات تعليمية مناسبة للطلب التالي."},
			{Role: llm.RoleUser, Content: query},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err)
	}
	return resp.Content, nil
}

func assessDamageDefinition(deps BuiltinDeps) tools.Definition {
	return tools.Definition{
		Name: "assess_damage",
		Description: tools.Description{
			AR: "يقيّم الأضرار الظاهرة في صور مرفقة.",
			EN: "Assesses damage visible in attached images.",
		},
		Params: []tools.ParamSpec{
			{Name: "message", Type: tools.TypeString, Description: "context for the assessment", Required: false},
		},
		Enabled: true,
		Handler: func(ctx context.Context, params map[string]any, _ *core.ToolContext) (any, error) {
			images, _ := params["images"].([]tools.ImageRef)
			// Batch bounds are enforced before any image is decoded or
			// forwarded to the vision backend.
			if err := tools.ValidateImageBatch(images, tools.MaxImagesPerRequest); err != nil {
				return nil, err
			}
			if deps.Vision == nil {
				return nil, errors.Newf(errors.CodeToolExecutionFailed, "vision backend not configured")
			}
			message, _ := params["message"].(string)
			out, err := deps.Vision(ctx, images, message)
			if err != nil {
				return nil, errors.Wrap(err)
			}
			return out, nil
		},
	}
}

func usageReportDefinition(deps BuiltinDeps) tools.Definition {
	return tools.Definition{
		Name: "usage_report",
		Description: tools.Description{
			AR: "يلخص سجل تنفيذ الخطط للمشرفين.",
			EN: "Summarizes plan execution history for administrators.",
		},
		Params: []tools.ParamSpec{
			{Name: "limit", Type: tools.TypeInteger, Description: "maximum audit entries to scan", Required: false, Default: 1000},
		},
		RequiredRoles: []core.Role{core.RoleAdmin},
		Enabled:       true,
		Handler: func(ctx context.Context, params map[string]any, _ *core.ToolContext) (any, error) {
			if deps.Audit == nil {
				return nil, errors.Newf(errors.CodeToolExecutionFailed, "audit store not configured")
			}
			limit := intParam(params["limit"], 1000)
			entries, err := deps.Audit.List(ctx, planner.AuditFilter{Limit: limit})
			if err != nil {
				return nil, errors.Wrap(err)
			}

			byTool := map[string]int{}
			byOutcome := map[string]int{}
			for _, entry := range entries {
				byTool[entry.Tool]++
				byOutcome[entry.Outcome]++
			}
			return map[string]any{
				"entries":    len(entries),
				"by_tool":    byTool,
				"by_outcome": byOutcome,
			}, nil
		},
	}
}

func historyMessages(ctx context.Context, deps BuiltinDeps, tc *core.ToolContext) []llm.Message {
	if deps.History == nil || tc == nil || tc.SessionID == "" {
		return nil
	}
	turns, err := deps.History.Recent(ctx, tc.SessionID, deps.HistoryWindow)
	if err != nil {
		return nil
	}
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		role := llm.RoleUser
		if strings.EqualFold(turn.Role, "assistant") {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	return messages
}

func intParam(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}
