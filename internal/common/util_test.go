package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte("S3cretPass")
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("refresh: %w", ErrRefreshTokenExpired)
	if !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("wrapped sentinel must match with errors.Is")
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Fatalf("distinct sentinels must not match")
	}
}
