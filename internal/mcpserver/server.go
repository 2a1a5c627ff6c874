// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes inkwell tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/postservice"
)

const formatURI = "inkwell://post-format"

// Server wraps the MCP server with inkwell tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *postservice.Service
	assets *assetLoader
}

// New creates a new MCP server with all inkwell tools registered.
func New(svc *postservice.Service) *Server {
	s := &Server{svc: svc, assets: newAssetLoader()}

	s.mcp = server.NewMCPServer(
		"Inkwell",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List published posts, newest first, optionally filtered by category or tag."),
		mcp.WithString("category", mcp.Description("Only posts in this category")),
		mcp.WithString("tag", mcp.Description("Only posts carrying this tag")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the full markdown body and metadata of a post."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post slug, or any unique part of it")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("publish_post",
		mcp.WithDescription("Publish a new post as one commit to the blog repository. "+
			"Inline images are referenced in the body as ![alt](placeholder-id) and supplied "+
			"through the images argument. Read the format first via get_post_format or the "+
			formatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Post title (single line)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body without a header block")),
		mcp.WithString("category", mcp.Description("Category; defaults to Uncategorized")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("thumbnail", mcp.Description("Thumbnail as a base64 data URI or an http(s) URL")),
		mcp.WithString("images", mcp.Description(`JSON object mapping placeholder ids to data URIs or URLs, e.g. {"img-1":"data:image/png;base64,..."}`)),
	), s.publishPost)

	s.mcp.AddTool(mcp.NewTool("get_post_format",
		mcp.WithDescription("Returns the post document format and publishing rules. "+
			"Call this before publishing."),
	), s.getPostFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Post Format",
			mcp.WithResourceDescription("Document format every post follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperr.MessageOf(err))
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts, err := s.svc.List(ctx, postservice.Filter{
		Category: req.GetString("category", ""),
		Tag:      req.GetString("tag", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(posts, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.svc.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	post.HTML = ""
	out, _ := json.MarshalIndent(post, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) publishPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sub := postservice.Submission{
		Title:    title,
		Content:  content,
		Category: req.GetString("category", ""),
		Tags:     postservice.ParseTags(req.GetString("tags", "")),
	}

	if ref := req.GetString("thumbnail", ""); ref != "" {
		up, err := s.assets.load(ctx, "thumbnail", ref)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("thumbnail: %v", err)), nil
		}
		sub.Thumbnail = &up
	}

	if raw := req.GetString("images", ""); raw != "" {
		var refs map[string]string
		if err := json.Unmarshal([]byte(raw), &refs); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("images must be a JSON object: %v", err)), nil
		}
		ids := make([]string, 0, len(refs))
		for id := range refs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			up, err := s.assets.load(ctx, id, refs[id])
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("image %s: %v", id, err)), nil
			}
			sub.ContentImages = append(sub.ContentImages, postservice.ContentImage{ID: id, Upload: up})
		}
	}

	res, err := s.svc.Publish(ctx, sub)
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPostFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
