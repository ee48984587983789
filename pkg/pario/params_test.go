package pario

import "testing"

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"valid", Params{NumProducers: 2, NumConsumers: 2, ChunksPerProducer: 4, BuffersPerProducer: 2}, false},
		{"zero producers", Params{NumProducers: 0, NumConsumers: 1, ChunksPerProducer: 1, BuffersPerProducer: 1}, true},
		{"zero consumers", Params{NumProducers: 1, NumConsumers: 0, ChunksPerProducer: 1, BuffersPerProducer: 1}, true},
		{"zero chunks", Params{NumProducers: 1, NumConsumers: 1, ChunksPerProducer: 0, BuffersPerProducer: 1}, true},
		{"zero buffers", Params{NumProducers: 1, NumConsumers: 1, ChunksPerProducer: 1, BuffersPerProducer: 0}, true},
		{"buffers exceed chunks", Params{NumProducers: 1, NumConsumers: 1, ChunksPerProducer: 2, BuffersPerProducer: 3}, true},
		{"buffers equal chunks", Params{NumProducers: 1, NumConsumers: 1, ChunksPerProducer: 2, BuffersPerProducer: 2}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParamsValidateForWriteRequiresBufferSize(t *testing.T) {
	p := Params{NumProducers: 1, NumConsumers: 1, ChunksPerProducer: 1, BuffersPerProducer: 1}
	if err := p.ValidateForWrite(); err == nil {
		t.Fatalf("expected error for zero buffer size")
	}
	p.BufferSize = 1024
	if err := p.ValidateForWrite(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTotalBuffersAndChunks(t *testing.T) {
	p := Params{NumProducers: 3, NumConsumers: 2, ChunksPerProducer: 5, BuffersPerProducer: 2}
	if got := p.totalBuffers(); got != 6 {
		t.Errorf("totalBuffers: expected 6, got %d", got)
	}
	if got := p.totalChunks(); got != 15 {
		t.Errorf("totalChunks: expected 15, got %d", got)
	}
}
