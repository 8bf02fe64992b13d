package limits

import (
	"errors"
	"testing"
)

func TestValidateControlSize(t *testing.T) {
	if err := ValidateControlSize(0); err != nil {
		t.Errorf("empty control payload should be valid, got %v", err)
	}
	if err := ValidateControlSize(MaxControlMessage); err != nil {
		t.Errorf("payload at the limit should be valid, got %v", err)
	}
	err := ValidateControlSize(MaxControlMessage + 1)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestValidateChunkSize(t *testing.T) {
	if err := ValidateChunkSize(0); err != nil {
		t.Errorf("empty chunk should be valid, got %v", err)
	}
	if err := ValidateChunkSize(MaxDataChunk); err != nil {
		t.Errorf("chunk at the limit should be valid, got %v", err)
	}
	err := ValidateChunkSize(MaxDataChunk + 1)
	if !errors.Is(err, ErrChunkTooLarge) {
		t.Errorf("expected ErrChunkTooLarge, got %v", err)
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := ValidateFileSize(MaxFileSize); err != nil {
		t.Errorf("file at the limit should be valid, got %v", err)
	}
	err := ValidateFileSize(MaxFileSize + 1)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestChunkFitsWithinControlFrame(t *testing.T) {
	// The negotiated chunk size must never exceed what a data frame can carry.
	if DefaultChunkSize > MaxDataChunk {
		t.Errorf("DefaultChunkSize %d exceeds MaxDataChunk %d", DefaultChunkSize, MaxDataChunk)
	}
	if ProgressAckInterval < DefaultChunkSize {
		t.Errorf("ProgressAckInterval %d smaller than one chunk %d", ProgressAckInterval, DefaultChunkSize)
	}
}
