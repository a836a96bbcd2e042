package transport

import (
	"testing"

	"subscribecore/internal/subscribe"
)

func TestToWireRequest_MapsOperationName(t *testing.T) {
	params := subscribe.RequestParams{Channels: "room1", TimeToken: "100"}

	sub := toWireRequest(1, subscribe.OpSubscribe, params)
	if sub.Op != "subscribe" {
		t.Fatalf("Op = %q, want subscribe", sub.Op)
	}
	if sub.Channels != "room1" || sub.TimeToken != "100" {
		t.Fatalf("unexpected wire request: %+v", sub)
	}

	unsub := toWireRequest(2, subscribe.OpUnsubscribe, params)
	if unsub.Op != "unsubscribe" {
		t.Fatalf("Op = %q, want unsubscribe", unsub.Op)
	}
}

func TestToStatus_ErrorCategoryTakesPrecedence(t *testing.T) {
	resp := wireResponse{RequestID: 1, ErrorCategory: "AccessDenied"}

	st := toStatus(subscribe.OpSubscribe, resp)
	if !st.IsError || st.Category != subscribe.CategoryAccessDenied {
		t.Fatalf("got %+v, want an AccessDenied error status", st)
	}
}

func TestToStatus_SuccessCarriesServiceData(t *testing.T) {
	resp := wireResponse{
		RequestID: 1,
		Timetoken: 100,
		Region:    2,
		Events: []wireEventJSON{
			{MessageType: "regular", Channel: "room1", Timetoken: 100},
		},
	}

	st := toStatus(subscribe.OpSubscribe, resp)
	if st.IsError {
		t.Fatalf("got error status: %+v", st)
	}
	if st.ServiceData == nil || st.ServiceData.Timetoken != 100 || st.ServiceData.Region != 2 {
		t.Fatalf("unexpected service data: %+v", st.ServiceData)
	}
	if len(st.ServiceData.Events) != 1 || st.ServiceData.Events[0].Channel != "room1" {
		t.Fatalf("unexpected events: %+v", st.ServiceData.Events)
	}
}
