package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Tool names follow the pattern "type_action".

var initToolDef = mcp.NewTool("tab_init",
	mcp.WithDescription("Register a tab session and return its resolved save options and auto-save eligibility. Tabs without an id are assigned one."),
	mcp.WithString("tab_id", mcp.Description("Stable tab identifier; omit to have one assigned")),
	mcp.WithString("url", mcp.Required(), mcp.Description("Current tab URL")),
	mcp.WithString("title", mcp.Description("Current tab title")),
	mcp.WithNumber("index", mcp.Description("Tab position in its window")),
	mcp.WithBoolean("pinned", mcp.Description("Whether the tab is pinned")),
	mcp.WithBoolean("private", mcp.Description("Whether the tab is in a private session")),
)

var saveToolDef = mcp.NewTool("tab_save",
	mcp.WithDescription("Submit a captured page for saving. Requests flagged discard_on_save or remove_on_save are deferred until a qualifying lifecycle event; plain requests save immediately."),
	mcp.WithString("tab_id", mcp.Required(), mcp.Description("Tab the capture belongs to")),
	mcp.WithString("content", mcp.Description("Serialized page document; fetched from the URL when omitted")),
	mcp.WithString("title", mcp.Description("Page title")),
	mcp.WithString("url", mcp.Description("Page URL")),
	mcp.WithString("referrer", mcp.Description("Referrer URL of the page")),
	mcp.WithArray("resources", mcp.Description("Subresources as {url, content} entries; bodies are fetched for entries with only a url")),
	mcp.WithArray("fonts", mcp.Description("Font subresources as {url, content} entries")),
	mcp.WithArray("images", mcp.Description("Image subresources as {url, content} entries")),
	mcp.WithString("visit_time", mcp.Description("RFC 3339 timestamp of the page visit; defaults to the save time")),
	mcp.WithString("task_id", mcp.Description("Correlation id for an externally initiated save")),
	mcp.WithBoolean("discard_on_save", mcp.Description("Defer until the tab is discarded")),
	mcp.WithBoolean("remove_on_save", mcp.Description("Defer until the tab is closed")),
	mcp.WithBoolean("unload_on_save", mcp.Description("Save immediately, the tab is about to unload")),
)

var updatedToolDef = mcp.NewTool("tab_updated",
	mcp.WithDescription("Report that a tab navigated or its document changed. Discards any pending save intent for the tab."),
	mcp.WithString("tab_id", mcp.Required(), mcp.Description("Tab identifier")),
	mcp.WithString("url", mcp.Required(), mcp.Description("New tab URL")),
	mcp.WithString("title", mcp.Description("New tab title")),
	mcp.WithNumber("index", mcp.Description("Tab position in its window")),
	mcp.WithBoolean("pinned", mcp.Description("Whether the tab is pinned")),
	mcp.WithBoolean("private", mcp.Description("Whether the tab is in a private session")),
)

var closedToolDef = mcp.NewTool("tab_closed",
	mcp.WithDescription("Report that a tab closed. Flushes a pending remove-on-close save, or records the close for a save request still in flight."),
	mcp.WithString("tab_id", mcp.Required(), mcp.Description("Tab identifier")),
)

var suspendedToolDef = mcp.NewTool("tab_suspended",
	mcp.WithDescription("Report that a tab was discarded from memory. Flushes any pending save intent before its data becomes unreachable."),
	mcp.WithString("tab_id", mcp.Required(), mcp.Description("Tab identifier")),
)

var replacedToolDef = mcp.NewTool("tab_replaced",
	mcp.WithDescription("Report that a tab's identity changed. Pending state moves to the new id."),
	mcp.WithString("old_tab_id", mcp.Required(), mcp.Description("Previous tab identifier")),
	mcp.WithString("new_tab_id", mcp.Required(), mcp.Description("New tab identifier")),
)

var enableToolDef = mcp.NewTool("autosave_enable",
	mcp.WithDescription("Set the per-tab auto-save opt-in flag and refresh the tab's UI."),
	mcp.WithString("tab_id", mcp.Required(), mcp.Description("Tab identifier")),
	mcp.WithBoolean("enabled", mcp.Description("Flag value; defaults to true")),
)

var isEnabledToolDef = mcp.NewTool("autosave_is_enabled",
	mcp.WithDescription("Report whether a tab is currently auto-save eligible under the global flags, its URL rule, and its opt-in flag."),
	mcp.WithString("tab_id", mcp.Required(), mcp.Description("Tab identifier")),
)

var refreshToolDef = mcp.NewTool("autosave_refresh",
	mcp.WithDescription("Push current save options and eligibility to every connected tab. Call after editing rules or profiles."),
)
