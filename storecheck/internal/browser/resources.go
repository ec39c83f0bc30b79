package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Blockable resource classes. Images, scripts and stylesheets are never
// blocked because the checks judge them.
var blockable = map[string]proto.NetworkResourceType{
	"fonts": proto.NetworkResourceTypeFont,
	"media": proto.NetworkResourceTypeMedia,
}

// Blockable reports whether class may appear in Config.BlockResources.
func Blockable(class string) bool {
	_, ok := blockable[strings.ToLower(class)]
	return ok
}

// blockResources fails matching requests with BlockedByClient, which the
// signal collector ignores.
func blockResources(page *rod.Page, classes []string) *rod.HijackRouter {
	block := make(map[proto.NetworkResourceType]bool, len(classes))
	for _, c := range classes {
		if t, ok := blockable[strings.ToLower(c)]; ok {
			block[t] = true
		}
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if block[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
