package main

import (
	"image/color"
	"net/http"
	"net/http/httptest"
)

var colorRed = color.RGBA{R: 220, G: 20, B: 60, A: 255}

func httptestGet(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}
