package mcpserver

// PostFormatContract describes how posts are stored and how LLM consumers
// should call publish_post.
const PostFormatContract = `# Inkwell Post Format

Every post is one ` + "`" + `.mdx` + "`" + ` document in the blog repository, committed together
with its images and index updates. You supply the body and metadata;
the header block below is written for you.

## Stored document

` + "```" + `markdown
---
title: "Post title"
date: 2025-01-15 09:30
category: "Dev"
tags: ["go", "testing"]
thumbnail: "https://raw.githubusercontent.com/<owner>/<repo>/<branch>/mdx/images/<file>"
readingTime: "3분"
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **Do not write a header block** in ` + "`" + `content` + "`" + `. Pass title, category and tags as
   tool arguments.
2. **Title** is required and must be a single line. Avoid double quotes; they are
   stored unescaped.
3. **Category** defaults to ` + "`" + `Uncategorized` + "`" + `. Category and tag names become file
   names, so they must not contain ` + "`" + `/` + "`" + `, ` + "`" + `\` + "`" + ` or ` + "`" + `..` + "`" + `.
4. **Tags** are a comma-separated string (e.g. ` + "`" + `go, web` + "`" + `).
5. **Posts are permanent.** There is no edit or delete; check the body before publishing.

## Images

- Reference each inline image with a placeholder id inside markdown image syntax:
  ` + "`" + `![diagram](img-1)` + "`" + `.
- Pass the images as a JSON object in the ` + "`" + `images` + "`" + ` argument:
  ` + "`" + `{"img-1": "data:image/png;base64,..."}` + "`" + `. Values may also be http(s) URLs.
- Every ` + "`" + `(img-1)` + "`" + ` in the body is replaced with the uploaded image URL. Ids are
  matched exactly, so ` + "`" + `img-1` + "`" + ` never rewrites ` + "`" + `img-10` + "`" + `.
- A thumbnail is passed the same way in the ` + "`" + `thumbnail` + "`" + ` argument.
- Supported formats: png, jpg, gif, webp, svg. Each image is limited to 5 MB.

## Example call

` + "```" + `json
{
  "title": "Weekly notes",
  "content": "# This week\n\n![board](img-1)\n\nShipped the parser.",
  "category": "Journal",
  "tags": "weekly, parser",
  "images": "{\"img-1\": \"data:image/png;base64,iVBORw0KGgo...\"}"
}
` + "```" + `
`
