package main

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

func runSubmit(apiURL, userID, content string, mood int, out io.Writer) error {
	if content == "" {
		return fmt.Errorf("content cannot be empty")
	}
	payload := map[string]interface{}{"content": content}
	if mood > 0 {
		payload["moodScore"] = mood
	}
	resp, err := newClient(apiURL).R().
		SetPathParam("userId", userID).
		SetBody(payload).
		Post("/v0/users/{userId}/entries")
	if err != nil {
		return err
	}
	return copyResponse(resp, http.StatusCreated, out)
}

func runList(apiURL, userID string, limit int, out io.Writer) error {
	req := newClient(apiURL).R().SetPathParam("userId", userID)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := req.Get("/v0/users/{userId}/entries")
	if err != nil {
		return err
	}
	return copyResponse(resp, http.StatusOK, out)
}

// runSimilar leaves the threshold to the service when it is nil.
func runSimilar(apiURL, userID, query string, limit int, threshold *float64, out io.Writer) error {
	if query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	body := map[string]interface{}{"query": query, "limit": limit}
	if threshold != nil {
		body["threshold"] = *threshold
	}
	resp, err := newClient(apiURL).R().
		SetPathParam("userId", userID).
		SetBody(body).
		Post("/v0/users/{userId}/similar")
	if err != nil {
		return err
	}
	return copyResponse(resp, http.StatusOK, out)
}
