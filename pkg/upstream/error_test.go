package upstream

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{429, KindQuota},
		{500, KindNetwork},
		{503, KindNetwork},
		{400, KindMalformed},
		{404, KindMalformed},
	}
	for _, c := range cases {
		if got := ClassifyStatus(c.status); got != c.want {
			t.Errorf("ClassifyStatus(%d) = %s, want %s", c.status, got, c.want)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap("embedding", KindNetwork, cause)

	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if upErr.Service != "embedding" || upErr.Kind != KindNetwork {
		t.Errorf("unexpected wrapping: %+v", upErr)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match the original cause")
	}
}

func TestWrapfFormatsMessage(t *testing.T) {
	err := Wrapf("chat-completion", KindQuota, "status %d", 429)
	msg := err.Error()
	if msg != fmt.Sprintf("chat-completion (quota): status %d", 429) {
		t.Errorf("unexpected message: %q", msg)
	}
}
