package agui

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDecoderJoinsDataLinesAndSkipsComments(t *testing.T) {
	stream := ": keep-alive\n" +
		"event: message\n" +
		"data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\n" +
		"data: \"messageId\":\"m1\",\"delta\":\"Hi\"}\n" +
		"\n" +
		"data:{\"type\":\"RUN_FINISHED\",\"runId\":\"r1\"}\r\n" +
		"\r\n"
	dec := NewDecoder(strings.NewReader(stream))

	first, err := dec.Next()
	if err != nil {
		t.Fatalf("first event: %v", err)
	}
	if first.Type != EventTextMessageContent || first.MessageID != "m1" || first.Text() != "Hi" {
		t.Fatalf("unexpected first event %+v", first)
	}
	second, err := dec.Next()
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	if second.Type != EventRunFinished || second.RunID != "r1" {
		t.Fatalf("unexpected second event %+v", second)
	}
	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestDecoderDispatchesTrailingEventAtEOF(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`data: {"type":"RUN_STARTED"}`))
	evt, err := dec.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if evt.Type != EventRunStarted {
		t.Fatalf("type = %s", evt.Type)
	}
}

func TestDecoderRejectsUntypedEvents(t *testing.T) {
	dec := NewDecoder(strings.NewReader("data: {}\n\n"))
	if _, err := dec.Next(); err == nil {
		t.Fatalf("expected error for event without type")
	}
}
