package main

import (
	"fmt"
	"io"
	"net/http"
)

func runHistory(apiURL, userID string, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetPathParam("userId", userID).
		Get("/v0/users/{userId}/history")
	if err != nil {
		return err
	}
	return copyResponse(resp, http.StatusOK, out)
}

func runPlan(apiURL, userID string, mood int, out io.Writer) error {
	if mood < 1 || mood > 100 {
		return fmt.Errorf("--mood must be between 1 and 100")
	}
	resp, err := newClient(apiURL).R().
		SetPathParam("userId", userID).
		SetBody(map[string]interface{}{"moodScore": mood}).
		Post("/v0/users/{userId}/intervention-plan")
	if err != nil {
		return err
	}
	return copyResponse(resp, http.StatusOK, out)
}

func runCheckIn(apiURL, userID string, mood int, note string, out io.Writer) error {
	if mood < 1 || mood > 100 {
		return fmt.Errorf("--mood must be between 1 and 100")
	}
	resp, err := newClient(apiURL).R().
		SetPathParam("userId", userID).
		SetBody(map[string]interface{}{"moodScore": mood, "content": note}).
		Post("/v0/users/{userId}/check-in")
	if err != nil {
		return err
	}
	return copyResponse(resp, http.StatusOK, out)
}
