package xerrors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	// nil 错误应返回 nil
	if err := Wrap(nil, "context"); err != nil {
		t.Errorf("Wrap(nil) = %v，期望 nil", err)
	}

	base := errors.New("base error")
	wrapped := Wrap(base, "context")
	if wrapped.Error() != "context: base error" {
		t.Errorf("Wrap(err).Error() = %q，期望 %q", wrapped.Error(), "context: base error")
	}
	if !errors.Is(wrapped, base) {
		t.Error("errors.Is(wrapped, base) = false，期望 true")
	}
}

func TestWrapf(t *testing.T) {
	if err := Wrapf(nil, "store %s", "redis"); err != nil {
		t.Errorf("Wrapf(nil) = %v，期望 nil", err)
	}

	wrapped := Wrapf(ErrUnavailable, "store %s", "redis")
	if wrapped.Error() != "store redis: unavailable" {
		t.Errorf("Wrapf(err).Error() = %q，期望 %q", wrapped.Error(), "store redis: unavailable")
	}
}

func TestWithCode(t *testing.T) {
	if err := WithCode(nil, "CODE"); err != nil {
		t.Errorf("WithCode(nil) = %v，期望 nil", err)
	}

	coded := WithCode(errors.New("metrics disabled"), "feature_not_enabled")
	if coded.Error() != "[feature_not_enabled] metrics disabled" {
		t.Errorf("WithCode(err).Error() = %q", coded.Error())
	}
	if code := GetCode(coded); code != "feature_not_enabled" {
		t.Errorf("GetCode(coded) = %q，期望 feature_not_enabled", code)
	}

	// 包装后的带码错误依然应有 code
	if code := GetCode(Wrap(coded, "check")); code != "feature_not_enabled" {
		t.Errorf("GetCode(wrapped) = %q，期望 feature_not_enabled", code)
	}

	var ce *CodedError
	if !errors.As(coded, &ce) {
		t.Fatal("errors.As(coded, *CodedError) = false")
	}
	if ce.Message() != "metrics disabled" {
		t.Errorf("Message() = %q，期望 %q", ce.Message(), "metrics disabled")
	}
}

func TestMust(t *testing.T) {
	if v := Must(42, nil); v != 42 {
		t.Errorf("Must(42, nil) = %d，期望 42", v)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Must(_, err) 未触发 panic")
		}
	}()
	Must(0, errors.New("error"))
}

func TestCombine(t *testing.T) {
	if err := Combine(nil, nil); err != nil {
		t.Errorf("Combine(nil, nil) = %v，期望 nil", err)
	}

	err1 := errors.New("error 1")
	if err := Combine(nil, err1, nil); err != err1 {
		t.Errorf("Combine(nil, err1, nil) = %v，期望 %v", err, err1)
	}

	err2 := errors.New("error 2")
	combined := Combine(err1, err2)
	if !errors.Is(combined, err1) || !errors.Is(combined, err2) {
		t.Error("Combine 合并的错误应能被 errors.Is 匹配")
	}
}

func TestSentinelErrors(t *testing.T) {
	err := Wrap(ErrNotFound, "task lookup")
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(wrapped, ErrNotFound) = false，期望 true")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("errors.Is(wrapped, ErrUnavailable) = true，期望 false")
	}
}
