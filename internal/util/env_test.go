package util

import (
	"reflect"
	"testing"
	"time"
)

func TestGetEnvGetters(t *testing.T) {
	t.Setenv("NG_STRING", "value")
	t.Setenv("NG_EMPTY", "")
	t.Setenv("NG_NUM", "12")
	t.Setenv("NG_BAD_NUM", "abc")
	t.Setenv("NG_BOOL", "true")
	t.Setenv("NG_BAD_BOOL", "yes")
	t.Setenv("NG_DURATION", "90s")
	t.Setenv("NG_LIST", " technology, ,science ")

	if got := GetEnvString("NG_STRING", "x"); got != "value" {
		t.Fatalf("GetEnvString() = %q", got)
	}
	if got := GetEnvString("NG_EMPTY", "fallback"); got != "fallback" {
		t.Fatalf("GetEnvString() on empty = %q", got)
	}
	if got := GetEnvNumeric("NG_NUM", 1); got != 12 {
		t.Fatalf("GetEnvNumeric() = %v", got)
	}
	if got := GetEnvNumeric("NG_BAD_NUM", 7); got != 7 {
		t.Fatalf("GetEnvNumeric() on invalid = %v", got)
	}
	if !GetEnvBool("NG_BOOL", false) {
		t.Fatal("GetEnvBool() = false, want true")
	}
	if GetEnvBool("NG_BAD_BOOL", false) {
		t.Fatal("GetEnvBool() on invalid should return default")
	}
	if got := GetEnvDuration("NG_DURATION", time.Second); got != 90*time.Second {
		t.Fatalf("GetEnvDuration() = %v", got)
	}
	if got := GetEnvList("NG_LIST", nil); !reflect.DeepEqual(got, []string{"technology", "science"}) {
		t.Fatalf("GetEnvList() = %#v", got)
	}
	if got := GetEnvList("NG_UNSET_LIST", []string{"a"}); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("GetEnvList() default = %#v", got)
	}
}
