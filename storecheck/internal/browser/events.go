package browser

import (
	"context"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/storecheck/storecheck/internal/dom"
)

type requestInfo struct {
	url string
	typ string
}

// Listen enables the Runtime and Network domains and forwards console
// errors, exceptions, failed requests and responses to rec. The handlers
// run on one goroutine, so the request index needs no lock.
func (t *Tab) Listen(ctx context.Context, rec dom.Recorder) func() {
	if err := (proto.RuntimeEnable{}).Call(t.page); err != nil {
		t.log.Warn("browser: runtime enable failed", "error", err)
	}
	if err := (proto.NetworkEnable{}).Call(t.page); err != nil {
		t.log.Warn("browser: network enable failed", "error", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	requests := make(map[proto.NetworkRequestID]requestInfo)

	wait := t.page.Context(lctx).EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) {
			if e.Type != proto.RuntimeConsoleAPICalledTypeError {
				return
			}
			rec.Console("error", consoleText(e.Args), stackURL(e.StackTrace))
		},

		func(e *proto.RuntimeExceptionThrown) {
			d := e.ExceptionDetails
			if d == nil {
				return
			}
			msg := d.Text
			if d.Exception != nil && d.Exception.Description != "" {
				msg = d.Exception.Description
			}
			rec.Exception(msg, d.URL)
		},

		func(e *proto.NetworkRequestWillBeSent) {
			if e.Request != nil {
				requests[e.RequestID] = requestInfo{url: e.Request.URL, typ: string(e.Type)}
			}
		},

		func(e *proto.NetworkLoadingFailed) {
			info := requests[e.RequestID]
			delete(requests, e.RequestID)
			reason := e.ErrorText
			if e.CorsErrorStatus != nil {
				reason += " CORS " + string(e.CorsErrorStatus.CorsError)
			}
			if e.BlockedReason != "" {
				reason += " blocked:" + string(e.BlockedReason)
			}
			typ := string(e.Type)
			if typ == "" {
				typ = info.typ
			}
			rec.RequestFailed(info.url, reason, typ, e.Canceled)
		},

		func(e *proto.NetworkResponseReceived) {
			delete(requests, e.RequestID)
			if e.Response == nil {
				return
			}
			headers := make(map[string]string, len(e.Response.Headers))
			for k, v := range e.Response.Headers {
				headers[k] = v.Str()
			}
			rec.Response(e.Response.URL, e.Response.Status, string(e.Type), headers)
		},
	)
	go wait()

	return cancel
}

func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if a.Type == proto.RuntimeRemoteObjectTypeString {
			parts = append(parts, a.Value.Str())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
			continue
		}
		parts = append(parts, a.Value.String())
	}
	return strings.Join(parts, " ")
}

func stackURL(st *proto.RuntimeStackTrace) string {
	if st == nil || len(st.CallFrames) == 0 {
		return ""
	}
	return st.CallFrames[0].URL
}
