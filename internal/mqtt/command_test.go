package mqtt

import (
	"testing"

	"github.com/sweeney/taskcore/internal/logic"
	"github.com/sweeney/taskcore/internal/queue"
)

func newHandler(t *testing.T, codec Codec, capacity int) (*CommandHandler, *queue.Queue[logic.RGB], *queue.Queue[logic.Angle]) {
	t.Helper()
	rgb, err := queue.New[logic.RGB](capacity)
	if err != nil {
		t.Fatal(err)
	}
	servo, err := queue.New[logic.Angle](capacity)
	if err != nil {
		t.Fatal(err)
	}
	return NewCommandHandler(Topics{Prefix: "lab"}, codec, rgb, servo), rgb, servo
}

func TestHandleRGB(t *testing.T) {
	h, rgb, _ := newHandler(t, JSON, 5)

	res := h.Handle("lab/cmd/rgb", []byte(`{"id":"c1","r":255,"g":0,"b":0}`))

	if !res.OK || res.ID != "c1" || res.Command != "rgb" {
		t.Fatalf("unexpected result: %+v", res)
	}
	pending := rgb.Pending()
	if len(pending) != 1 || pending[0] != (logic.RGB{R: 255}) {
		t.Errorf("unexpected queue contents: %+v", pending)
	}
}

func TestHandleRGBErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"missing channel", `{"r":1,"g":2}`, ErrMissingRGB.Error()},
		{"out of range", `{"r":1,"g":2,"b":300}`, ErrRGBRange.Error()},
		{"negative", `{"r":-1,"g":2,"b":3}`, ErrRGBRange.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, rgb, _ := newHandler(t, JSON, 5)
			res := h.Handle("lab/cmd/rgb", []byte(tt.payload))
			if res.OK || res.Error != tt.want {
				t.Errorf("got %+v, want error %q", res, tt.want)
			}
			if res.ID == "" {
				t.Error("result should carry a generated id")
			}
			if rgb.Len() != 0 {
				t.Error("rejected command must not be queued")
			}
		})
	}
}

func TestHandleRGBDecodeError(t *testing.T) {
	h, _, _ := newHandler(t, JSON, 5)
	res := h.Handle("lab/cmd/rgb", []byte(`not json`))
	if res.OK || res.Error == "" {
		t.Errorf("expected decode error, got %+v", res)
	}
}

func TestHandleRGBQueueFull(t *testing.T) {
	h, rgb, _ := newHandler(t, JSON, 5)
	for i := 0; i < 5; i++ {
		if res := h.Handle("lab/cmd/rgb", []byte(`{"r":1,"g":1,"b":1}`)); !res.OK {
			t.Fatalf("command %d rejected: %+v", i, res)
		}
	}

	res := h.Handle("lab/cmd/rgb", []byte(`{"r":9,"g":9,"b":9}`))
	if res.OK || res.Error != ErrQueueFull.Error() {
		t.Errorf("expected queue full, got %+v", res)
	}
	if rgb.Len() != 5 {
		t.Errorf("expected 5 pending, got %d", rgb.Len())
	}
}

func TestHandleServoClamps(t *testing.T) {
	tests := []struct {
		payload string
		want    logic.Angle
	}{
		{`{"value":90}`, 90},
		{`{"value":270}`, 180},
		{`{"value":-5}`, 0},
	}
	for _, tt := range tests {
		h, _, servo := newHandler(t, JSON, 5)
		res := h.Handle("lab/cmd/servo", []byte(tt.payload))
		if !res.OK || res.Angle == nil || *res.Angle != int(tt.want) {
			t.Errorf("%s: unexpected result %+v", tt.payload, res)
		}
		if got := servo.Pending(); len(got) != 1 || got[0] != tt.want {
			t.Errorf("%s: queued %v, want %d", tt.payload, got, tt.want)
		}
	}
}

func TestHandleServoMissingValue(t *testing.T) {
	h, _, _ := newHandler(t, JSON, 5)
	res := h.Handle("lab/cmd/servo", []byte(`{}`))
	if res.OK || res.Error != ErrMissingValue.Error() {
		t.Errorf("expected missing value, got %+v", res)
	}
}

func TestHandleUnknownTopic(t *testing.T) {
	h, _, _ := newHandler(t, JSON, 5)
	res := h.Handle("lab/cmd/laser", []byte(`{}`))
	if res.OK || res.Error != ErrUnknownTopic.Error() {
		t.Errorf("expected unknown topic, got %+v", res)
	}
}

func TestHandleCBOR(t *testing.T) {
	h, rgb, _ := newHandler(t, CBOR, 5)
	r, g, b := 10, 20, 30
	payload, err := CBOR.Marshal(RGBCommand{R: &r, G: &g, B: &b})
	if err != nil {
		t.Fatal(err)
	}

	if res := h.Handle("lab/cmd/rgb", payload); !res.OK {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := rgb.Pending(); got[0] != (logic.RGB{R: 10, G: 20, B: 30}) {
		t.Errorf("unexpected command: %+v", got)
	}
}

func TestCommandTopics(t *testing.T) {
	h, _, _ := newHandler(t, nil, 1)
	got := h.Topics()
	if len(got) != 2 || got[0] != "lab/cmd/rgb" || got[1] != "lab/cmd/servo" {
		t.Errorf("unexpected topics: %v", got)
	}
}
