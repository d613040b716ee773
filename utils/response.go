package utils

import (
	"encoding/json"
	"net/http"

	"edusaas-checkout-api/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	SendErrorResponseWithData(w, status, message, nil)
}

func SendErrorResponseWithData(w http.ResponseWriter, status int, message string, data interface{}) {
	SendJSON(w, status, models.APIResponse{
		Status:  "error",
		Message: message,
		Data:    data,
	})
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
	if response.Status == "" {
		response.Status = "success"
	}
	SendJSON(w, http.StatusOK, response)
}

func SendJSON(w http.ResponseWriter, status int, response models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
