package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eugenesvk/tabsave/internal/coordinator"
	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/page"
	"github.com/eugenesvk/tabsave/internal/save"
	"github.com/eugenesvk/tabsave/internal/tab"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	d   *coordinator.Dispatcher
	dir tab.Directory
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d *coordinator.Dispatcher, dir tab.Directory) *Handlers {
	return &Handlers{d: d, dir: dir}
}

// Request types for each tool

// TabRequest carries a tab's attributes, used by init and updated.
type TabRequest struct {
	TabID   string `json:"tab_id,omitempty"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Index   int    `json:"index,omitempty"`
	Pinned  bool   `json:"pinned,omitempty"`
	Private bool   `json:"private,omitempty"`
}

// ResourceRequest is one subresource entry in a save request.
type ResourceRequest struct {
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
}

// SaveRequest represents the arguments for tab_save.
type SaveRequest struct {
	TabID     string            `json:"tab_id"`
	Content   string            `json:"content,omitempty"`
	Title     string            `json:"title,omitempty"`
	URL       string            `json:"url,omitempty"`
	Referrer  string            `json:"referrer,omitempty"`
	Resources []ResourceRequest `json:"resources,omitempty"`
	Fonts     []ResourceRequest `json:"fonts,omitempty"`
	Images    []ResourceRequest `json:"images,omitempty"`

	VisitTime time.Time `json:"visit_time,omitzero"`

	TaskID        string `json:"task_id,omitempty"`
	DiscardOnSave bool   `json:"discard_on_save,omitempty"`
	RemoveOnSave  bool   `json:"remove_on_save,omitempty"`
	UnloadOnSave  bool   `json:"unload_on_save,omitempty"`
}

// TabIDRequest identifies a tab, used by the closed/suspended/flag tools.
type TabIDRequest struct {
	TabID string `json:"tab_id"`
}

// ReplacedRequest represents the arguments for tab_replaced.
type ReplacedRequest struct {
	OldTabID string `json:"old_tab_id"`
	NewTabID string `json:"new_tab_id"`
}

// EnableRequest represents the arguments for autosave_enable.
type EnableRequest struct {
	TabID   string `json:"tab_id"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Handler implementations

// HandleInit handles the tab_init tool call.
func (h *Handlers) HandleInit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.URL == "" {
		return errorResult(errors.NewInvalidRequest("url is required")), nil
	}

	res, err := h.d.HandleInit(ctx, &tab.Tab{
		ID:      input.TabID,
		URL:     input.URL,
		Title:   input.Title,
		Index:   input.Index,
		Pinned:  input.Pinned,
		Private: input.Private,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(res)
}

// HandleSave handles the tab_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.TabID == "" {
		return errorResult(errors.NewInvalidRequest("tab_id is required")), nil
	}

	payload := &save.Payload{
		Content:       input.Content,
		Title:         input.Title,
		URL:           input.URL,
		Referrer:      input.Referrer,
		Resources:     toResources(input.Resources),
		Fonts:         toResources(input.Fonts),
		Images:        toResources(input.Images),
		VisitTime:     input.VisitTime,
		TaskID:        input.TaskID,
		DiscardOnSave: input.DiscardOnSave,
		RemoveOnSave:  input.RemoveOnSave,
		UnloadOnSave:  input.UnloadOnSave,
	}

	// A registered tab counts as session context; an unknown id only
	// matches a close that already happened.
	sessionTab, _ := h.dir.Get(input.TabID)

	msg := &coordinator.SaveMessage{TabID: input.TabID, Payload: payload}
	if err := h.d.HandleSaveRequest(ctx, msg, sessionTab); err != nil {
		return errorResult(err), nil
	}

	in := h.d.Registry().Get(input.TabID)
	return successResult(map[string]any{
		"tab_id":   input.TabID,
		"deferred": in != nil && in.Kind == coordinator.KindSaveRequest,
	})
}

// HandleUpdated handles the tab_updated tool call.
func (h *Handlers) HandleUpdated(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.TabID == "" || input.URL == "" {
		return errorResult(errors.NewInvalidRequest("tab_id and url are required")), nil
	}

	h.d.OnTabUpdated(&tab.Tab{
		ID:      input.TabID,
		URL:     input.URL,
		Title:   input.Title,
		Index:   input.Index,
		Pinned:  input.Pinned,
		Private: input.Private,
	})

	return successResult(map[string]any{"tab_id": input.TabID})
}

// HandleClosed handles the tab_closed tool call.
func (h *Handlers) HandleClosed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.TabID == "" {
		return errorResult(errors.NewInvalidRequest("tab_id is required")), nil
	}

	h.d.OnTabClosed(ctx, input.TabID)
	return successResult(map[string]any{"tab_id": input.TabID})
}

// HandleSuspended handles the tab_suspended tool call.
func (h *Handlers) HandleSuspended(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.TabID == "" {
		return errorResult(errors.NewInvalidRequest("tab_id is required")), nil
	}

	h.d.OnTabSuspended(ctx, input.TabID)
	return successResult(map[string]any{"tab_id": input.TabID})
}

// HandleReplaced handles the tab_replaced tool call.
func (h *Handlers) HandleReplaced(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReplacedRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.OldTabID == "" || input.NewTabID == "" {
		return errorResult(errors.NewInvalidRequest("old_tab_id and new_tab_id are required")), nil
	}
	if input.OldTabID == input.NewTabID {
		return errorResult(errors.NewInvalidRequest("old_tab_id and new_tab_id must differ")), nil
	}

	h.d.OnTabReplaced(input.OldTabID, input.NewTabID)
	return successResult(map[string]any{"tab_id": input.NewTabID})
}

// HandleEnable handles the autosave_enable tool call.
func (h *Handlers) HandleEnable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EnableRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.TabID == "" {
		return errorResult(errors.NewInvalidRequest("tab_id is required")), nil
	}

	t, ok := h.dir.Get(input.TabID)
	if !ok {
		return errorResult(errors.NewNotFound("tab", input.TabID)), nil
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}

	if err := h.d.HandleEnableAutoSave(t, enabled); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"tab_id": input.TabID, "enabled": enabled})
}

// HandleIsEnabled handles the autosave_is_enabled tool call.
func (h *Handlers) HandleIsEnabled(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.TabID == "" {
		return errorResult(errors.NewInvalidRequest("tab_id is required")), nil
	}

	t, ok := h.dir.Get(input.TabID)
	if !ok {
		return errorResult(errors.NewNotFound("tab", input.TabID)), nil
	}

	enabled, err := h.d.HandleIsAutoSaveEnabled(t)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"tab_id": input.TabID, "enabled": enabled})
}

// HandleRefresh handles the autosave_refresh tool call.
func (h *Handlers) HandleRefresh(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.d.Resolver().Invalidate()
	if err := h.d.HandleBroadcastRefresh(ctx); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"refreshed": len(h.dir.List())})
}

func toResources(in []ResourceRequest) []page.Resource {
	if len(in) == 0 {
		return nil
	}
	out := make([]page.Resource, len(in))
	for i, r := range in {
		out[i] = page.Resource{URL: r.URL, Content: r.Content}
	}
	return out
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if saveErr, ok := err.(*errors.SaveError); ok {
		errorObj := map[string]any{
			"code":    saveErr.Code,
			"message": saveErr.Message,
			"status":  saveErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if saveErr.Code != errors.ErrInternal && saveErr.Details != nil {
			errorObj["details"] = saveErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
