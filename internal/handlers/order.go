package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"crm-integrator/internal/crm"
	"crm-integrator/internal/database"
	"crm-integrator/internal/models"
	"crm-integrator/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxFormMemory = 32 << 20

type orderResponse struct {
	OK             bool    `json:"ok"`
	Deals          []int64 `json:"deals,omitempty"`
	ContactID      int64   `json:"contactId,omitempty"`
	CompanyID      int64   `json:"companyId,omitempty"`
	FailedVehicles []int   `json:"failedVehicles,omitempty"`
	Message        string  `json:"message,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// SubmitOrder — единый обработчик обеих продуктовых линеек; различия
// между ними живут в таблице продуктов, а не в ветках кода.
func SubmitOrder(pipeline *order.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, ok := crm.ProductByCode(c.Param("product"))
		if !ok {
			c.JSON(http.StatusNotFound, orderResponse{Error: "Неизвестный продукт"})
			return
		}

		if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
			c.JSON(http.StatusBadRequest, orderResponse{Error: "Некорректная форма"})
			return
		}

		form, err := order.ParseForm(c.Request.MultipartForm)
		if err != nil {
			c.JSON(http.StatusBadRequest, orderResponse{Error: "Некорректная форма"})
			return
		}
		form.Product = product

		// фоновый контекст: обрыв клиента не должен прерывать запись
		// сделки в CRM на полпути
		res, err := pipeline.Process(context.Background(), form)

		recordSubmission(form, res, err)

		if err != nil {
			var ve *order.ValidationError
			if errors.As(err, &ve) {
				c.JSON(http.StatusBadRequest, orderResponse{Error: ve.Msg})
				return
			}
			c.JSON(http.StatusInternalServerError, orderResponse{
				Error: "Не удалось обработать заявку, попробуйте позже",
			})
			return
		}

		c.JSON(http.StatusOK, orderResponse{
			OK:             true,
			Deals:          res.Deals,
			ContactID:      res.ContactID,
			CompanyID:      res.CompanyID,
			FailedVehicles: res.FailedVehicles,
			Message:        res.Message,
		})
	}
}

// recordSubmission пишет исход в локальный журнал; любой сбой записи
// глотается внутри database.RecordSubmission.
func recordSubmission(f *order.Form, res *order.Result, procErr error) {
	rec := &models.Submission{
		PublicID:     uuid.NewString(),
		Product:      f.Product.Code,
		Email:        f.Email,
		IsCompany:    f.IsCompany,
		VehicleCount: len(f.Vehicles),
		PageURL:      f.PageURL,
		UTM:          f.UTM,
	}

	switch {
	case procErr != nil:
		var ve *order.ValidationError
		if errors.As(procErr, &ve) {
			rec.Status = models.SubmissionRejected
		} else {
			rec.Status = models.SubmissionFailed
		}
		rec.Error = procErr.Error()
	case len(res.FailedVehicles) > 0:
		rec.Status = models.SubmissionPartial
	default:
		rec.Status = models.SubmissionOK
	}

	if res != nil {
		rec.ContactID = res.ContactID
		rec.CompanyID = res.CompanyID
		rec.DealIDs = marshalJSON(res.Deals)
		rec.FailedVehicles = marshalJSON(res.FailedVehicles)
	}

	database.RecordSubmission(rec)
}

func marshalJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
