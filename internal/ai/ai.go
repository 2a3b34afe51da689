package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/01moynul/renovation-mindmap/internal/logger"
	"github.com/01moynul/renovation-mindmap/internal/models"
)

const (
	lookupTool    = "lookup_node"
	maxToolRounds = 4
)

// NodeLookup finds a node of the current mind map by node_id.
type NodeLookup func(nodeID int64) (*models.TreeNode, bool)

// AIService holds the Gemini client used to explain mind map nodes.
type AIService struct {
	Client *genai.Client
	Model  string
	log    *logger.Logger
}

// NewAIService initializes the Gemini client.
func NewAIService(ctx context.Context, apiKey, modelName string, log *logger.Logger) (*AIService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AIService{Client: client, Model: modelName, log: log.With("service", "ai")}, nil
}

func (s *AIService) Close() error {
	return s.Client.Close()
}

// ExplainNode asks Gemini to explain one renovation step in plain language.
// The model may call lookup_node to read the parent or children of the node.
// It returns the answer and the total token count.
func (s *AIService) ExplainNode(ctx context.Context, node *models.TreeNode, lookup NodeLookup) (string, int, error) {
	// 1. Configure the model with the lookup tool.
	model := s.Client.GenerativeModel(s.Model)
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        lookupTool,
			Description: "Returns the name, details and child ids of a mind map node.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"node_id": {Type: genai.TypeInteger, Description: "The node_id to look up."},
				},
				Required: []string{"node_id"},
			},
		}},
	}}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(`
			You explain steps of a home renovation process to home owners.
			Answer in the language of the node text. Be concise and practical.
			Use lookup_node when the surrounding steps matter.
		`)},
	}

	// 2. Send the node.
	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(Prompt(node)))
	if err != nil {
		return "", 0, fmt.Errorf("error sending message: %w", err)
	}
	totalTokens := tokens(res)

	// 3. Serve tool calls until the model answers with text.
	for round := 0; ; round++ {
		if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
			return "No response.", totalTokens, nil
		}
		part := res.Candidates[0].Content.Parts[0]

		funcCall, ok := part.(genai.FunctionCall)
		if !ok {
			return fmt.Sprintf("%v", part), totalTokens, nil
		}
		if funcCall.Name != lookupTool {
			return "", totalTokens, fmt.Errorf("unknown function: %s", funcCall.Name)
		}
		if round >= maxToolRounds {
			return "", totalTokens, fmt.Errorf("too many tool calls")
		}

		result := LookupResult(funcCall.Args, lookup)
		s.log.Debug("AI looked up node", "args", funcCall.Args)

		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     lookupTool,
			Response: map[string]interface{}{"result": result},
		})
		if err != nil {
			return "", totalTokens, fmt.Errorf("tool response error: %w", err)
		}
		// UsageMetadata is cumulative for the chat.
		if t := tokens(res); t > 0 {
			totalTokens = t
		}
	}
}

// Prompt describes a node for the model.
func Prompt(node *models.TreeNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain the renovation step %q (node_id %d).\n", node.Name, node.NodeID)
	if len(node.Details) > 0 {
		b.WriteString("Known details:\n")
		for _, d := range node.Details {
			fmt.Fprintf(&b, "- %s\n", d.Text)
		}
	}
	if node.ParentID != nil {
		fmt.Fprintf(&b, "Parent node_id: %d\n", *node.ParentID)
	}
	if len(node.Children) > 0 {
		names := make([]string, len(node.Children))
		for i, c := range node.Children {
			names[i] = fmt.Sprintf("%s (%d)", c.Name, c.NodeID)
		}
		fmt.Fprintf(&b, "Sub-steps: %s\n", strings.Join(names, ", "))
	}
	return b.String()
}

// LookupResult answers a lookup_node call as JSON text.
func LookupResult(args map[string]any, lookup NodeLookup) string {
	var id int64
	switch v := args["node_id"].(type) {
	case float64:
		id = int64(v)
	case int64:
		id = v
	case int:
		id = int64(v)
	default:
		return `{"error":"node_id must be a number"}`
	}

	node, ok := lookup(id)
	if !ok {
		return fmt.Sprintf(`{"error":"node %d not found"}`, id)
	}

	details := make([]string, 0, len(node.Details))
	for _, d := range node.Details {
		details = append(details, d.Text)
	}
	children := make([]int64, 0, len(node.Children))
	for _, c := range node.Children {
		children = append(children, c.NodeID)
	}
	out, err := json.Marshal(map[string]any{
		"node_id":  node.NodeID,
		"name":     node.Name,
		"details":  details,
		"children": children,
	})
	if err != nil {
		return `{"error":"encode failed"}`
	}
	return string(out)
}

func tokens(res *genai.GenerateContentResponse) int {
	if res == nil || res.UsageMetadata == nil {
		return 0
	}
	return int(res.UsageMetadata.TotalTokenCount)
}
