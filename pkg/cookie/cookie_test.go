package cookie

import (
	"testing"
	"time"
)

func TestIsCookiePrefix(t *testing.T) {
	r := NewInMemoryRegistry("", nil)

	if !r.IsCookiePrefix("/watched/root/.watch-cookie-123") {
		t.Fatal("expected default-prefixed cookie to be recognized")
	}
	if r.IsCookiePrefix("/watched/root/notacookie.txt") {
		t.Fatal("did not expect a non-cookie path to be recognized")
	}
}

func TestCustomPrefix(t *testing.T) {
	r := NewInMemoryRegistry("fence-", nil)
	if !r.IsCookiePrefix("/w/fence-42") {
		t.Fatal("expected custom prefix to be recognized")
	}
	if r.IsCookiePrefix("/w/.watch-cookie-42") {
		t.Fatal("did not expect the default prefix to match a custom registry")
	}
}

func TestNotifyCookieWakesWaiter(t *testing.T) {
	r := NewInMemoryRegistry("", nil)

	done := r.WaitForCookie("/w/.watch-cookie-1")
	r.NotifyCookie("/w/.watch-cookie-1")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected waiter to be woken by NotifyCookie")
	}
}

func TestNotifyCookieOnlyWakesMatchingWaiter(t *testing.T) {
	r := NewInMemoryRegistry("", nil)

	other := r.WaitForCookie("/w/.watch-cookie-other")
	target := r.WaitForCookie("/w/.watch-cookie-target")

	r.NotifyCookie("/w/.watch-cookie-target")

	select {
	case <-target:
	case <-time.After(time.Second):
		t.Fatal("expected target waiter to be woken")
	}

	select {
	case <-other:
		t.Fatal("did not expect unrelated waiter to be woken")
	default:
	}
}

func TestAbortAllCookiesWakesEveryWaiter(t *testing.T) {
	r := NewInMemoryRegistry("", nil)

	a := r.WaitForCookie("/w/.watch-cookie-a")
	b := r.WaitForCookie("/w/.watch-cookie-b")

	r.AbortAllCookies()

	for _, ch := range []<-chan struct{}{a, b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected AbortAllCookies to wake every waiter")
		}
	}
}
