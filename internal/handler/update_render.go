package handler

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// videoEmbed 日报演示录屏的播放器信息
type videoEmbed struct {
	Platform string `json:"platform"`
	Source   string `json:"source"`
	EmbedURL string `json:"embed_url"`
}

// demoHost 描述一个可内嵌播放的录屏站点
type demoHost struct {
	platform string
	domains  []string
	// videoID 从链接中取出视频 ID，取不到时返回空串
	videoID func(u *url.URL) string
	embed   func(id string, u *url.URL) string
}

var demoHosts = []demoHost{
	{
		platform: "youtube",
		domains:  []string{"youtube.com", "youtu.be"},
		videoID: func(u *url.URL) string {
			if strings.EqualFold(u.Hostname(), "youtu.be") {
				return firstSegment(u.Path)
			}
			path := strings.Trim(u.Path, "/")
			if path == "watch" {
				return u.Query().Get("v")
			}
			for _, prefix := range []string{"shorts/", "embed/", "live/"} {
				if rest, ok := strings.CutPrefix(path, prefix); ok {
					return firstSegment(rest)
				}
			}
			return ""
		},
		embed: func(id string, u *url.URL) string {
			values := url.Values{"rel": {"0"}}
			if start, err := strconv.Atoi(u.Query().Get("t")); err == nil && start > 0 {
				values.Set("start", strconv.Itoa(start))
			}
			return "https://www.youtube.com/embed/" + id + "?" + values.Encode()
		},
	},
	{
		platform: "loom",
		domains:  []string{"loom.com"},
		videoID:  segmentAfter("share"),
		embed: func(id string, _ *url.URL) string {
			return "https://www.loom.com/embed/" + id
		},
	},
	{
		platform: "vimeo",
		domains:  []string{"vimeo.com"},
		videoID: func(u *url.URL) string {
			id := firstSegment(u.Path)
			if _, err := strconv.ParseUint(id, 10, 64); err != nil {
				return ""
			}
			return id
		},
		embed: func(id string, _ *url.URL) string {
			return "https://player.vimeo.com/video/" + id
		},
	},
	{
		platform: "bilibili",
		domains:  []string{"bilibili.com"},
		videoID: func(u *url.URL) string {
			id := segmentAfter("video")(u)
			if !strings.HasPrefix(strings.ToLower(id), "bv") {
				return ""
			}
			return id
		},
		embed: func(id string, u *url.URL) string {
			values := url.Values{"bvid": {id}, "autoplay": {"0"}, "page": {"1"}}
			if page, err := strconv.Atoi(u.Query().Get("p")); err == nil && page > 0 {
				values.Set("page", strconv.Itoa(page))
			}
			return "https://player.bilibili.com/player.html?" + values.Encode()
		},
	},
}

// renderMarkdown 将日报正文渲染为经过清洗的 HTML
func renderMarkdown(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

// describeVideoLink 识别常见录屏站点；其他 http(s) 链接作为普通外链返回
func describeVideoLink(raw string) (videoEmbed, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return videoEmbed{}, false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Hostname() == "" {
		return videoEmbed{}, false
	}

	host := strings.ToLower(parsed.Hostname())
	for _, candidate := range demoHosts {
		if !matchesAnyDomain(host, candidate.domains) {
			continue
		}
		if id := candidate.videoID(parsed); id != "" {
			return videoEmbed{Platform: candidate.platform, Source: trimmed, EmbedURL: candidate.embed(id, parsed)}, true
		}
		break
	}

	return videoEmbed{Platform: "link", Source: trimmed, EmbedURL: trimmed}, true
}

func segmentAfter(marker string) func(*url.URL) string {
	return func(u *url.URL) string {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(segments); i++ {
			if segments[i] == marker {
				return segments[i+1]
			}
		}
		return ""
	}
}

func firstSegment(path string) string {
	segment, _, _ := strings.Cut(strings.Trim(path, "/"), "/")
	return segment
}

func matchesAnyDomain(host string, domains []string) bool {
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
