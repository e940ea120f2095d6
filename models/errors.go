package models

import "fmt"

var ErrConfiguration = fmt.Errorf("configuration error")

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
