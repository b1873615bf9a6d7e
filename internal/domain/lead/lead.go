package lead

import (
	"errors"
	"time"
)

type Source string

const (
	SourceWebsite     Source = "Website"
	SourceYoutube     Source = "Youtube"
	SourceSearch      Source = "Search"
	SourceReferral    Source = "Referral"
	SourceSocialMedia Source = "Social Media"
	SourceEvent       Source = "Event"
	SourceOther       Source = "Other"
)

// Sources is the fixed catalogue in display order.
var Sources = []Source{
	SourceWebsite,
	SourceYoutube,
	SourceSearch,
	SourceReferral,
	SourceSocialMedia,
	SourceEvent,
	SourceOther,
}

func (s Source) IsValid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusNew        Status = "New"
	StatusQualified  Status = "Qualified"
	StatusInProgress Status = "In Progress"
	StatusConverted  Status = "Converted"
	StatusLost       Status = "Lost"
)

var Statuses = []Status{
	StatusNew,
	StatusQualified,
	StatusInProgress,
	StatusConverted,
	StatusLost,
}

func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Lead timestamps are epoch milliseconds. A new lead has UpdatedAt equal to
// CreatedAt. UpdatedAt may be nil on rows written before it was stamped.
type Lead struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Company             string `json:"company"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Source              Source `json:"source"`
	Status              Status `json:"status"`
	Product             string `json:"product"`
	ProductRegister     string `json:"productRegister"`
	EndUserContact      string `json:"endUserContact"`
	EndUserOrganization string `json:"endUserOrganization"`
	ProjectName         string `json:"projectName"`
	Budget              string `json:"budget"`
	PartnerContact      string `json:"partnerContact"`
	CreatedAt           int64  `json:"createdAt"`
	UpdatedAt           *int64 `json:"updatedAt"`
	CreatedBy           string `json:"createdBy"`
	CreatedByID         int64  `json:"createdById"`
}

var ErrNotFound = errors.New("lead not found")

// CreateRequest carries the client-supplied fields. Attribution fields are
// absent on purpose: they always come from the authenticated identity.
type CreateRequest struct {
	Name                string `json:"name" validate:"required,max=200"`
	Company             string `json:"company" validate:"required,max=200"`
	Email               string `json:"email" validate:"required,email"`
	Phone               string `json:"phone" validate:"required,max=50"`
	Source              Source `json:"source" validate:"required,leadsource"`
	Status              Status `json:"status" validate:"omitempty,leadstatus"`
	Product             string `json:"product" validate:"max=200"`
	ProductRegister     string `json:"productRegister" validate:"max=200"`
	EndUserContact      string `json:"endUserContact" validate:"max=200"`
	EndUserOrganization string `json:"endUserOrganization" validate:"max=200"`
	ProjectName         string `json:"projectName" validate:"max=200"`
	Budget              string `json:"budget" validate:"max=100"`
	PartnerContact      string `json:"partnerContact" validate:"max=200"`
}

// UpdateRequest is a partial update: nil fields are left untouched.
type UpdateRequest struct {
	Name                *string `json:"name" validate:"omitempty,min=1,max=200"`
	Company             *string `json:"company" validate:"omitempty,min=1,max=200"`
	Email               *string `json:"email" validate:"omitempty,email"`
	Phone               *string `json:"phone" validate:"omitempty,min=1,max=50"`
	Source              *Source `json:"source" validate:"omitempty,leadsource"`
	Status              *Status `json:"status" validate:"omitempty,leadstatus"`
	Product             *string `json:"product" validate:"omitempty,max=200"`
	ProductRegister     *string `json:"productRegister" validate:"omitempty,max=200"`
	EndUserContact      *string `json:"endUserContact" validate:"omitempty,max=200"`
	EndUserOrganization *string `json:"endUserOrganization" validate:"omitempty,max=200"`
	ProjectName         *string `json:"projectName" validate:"omitempty,max=200"`
	Budget              *string `json:"budget" validate:"omitempty,max=100"`
	PartnerContact      *string `json:"partnerContact" validate:"omitempty,max=200"`
}

// Attribution is stamped onto a lead at creation time.
type Attribution struct {
	UserID int64
	Name   string
}

func NewFromCreateRequest(req CreateRequest, by Attribution, now time.Time) Lead {
	status := req.Status
	if status == "" {
		status = StatusNew
	}

	ts := now.UnixMilli()

	return Lead{
		Name:                req.Name,
		Company:             req.Company,
		Email:               req.Email,
		Phone:               req.Phone,
		Source:              req.Source,
		Status:              status,
		Product:             req.Product,
		ProductRegister:     req.ProductRegister,
		EndUserContact:      req.EndUserContact,
		EndUserOrganization: req.EndUserOrganization,
		ProjectName:         req.ProjectName,
		Budget:              req.Budget,
		PartnerContact:      req.PartnerContact,
		CreatedAt:           ts,
		UpdatedAt:           &ts,
		CreatedBy:           by.Name,
		CreatedByID:         by.UserID,
	}
}

// Apply merges the provided fields into l and stamps updatedAt.
func (req UpdateRequest) Apply(l Lead, now time.Time) Lead {
	setString(&l.Name, req.Name)
	setString(&l.Company, req.Company)
	setString(&l.Email, req.Email)
	setString(&l.Phone, req.Phone)
	setString(&l.Product, req.Product)
	setString(&l.ProductRegister, req.ProductRegister)
	setString(&l.EndUserContact, req.EndUserContact)
	setString(&l.EndUserOrganization, req.EndUserOrganization)
	setString(&l.ProjectName, req.ProjectName)
	setString(&l.Budget, req.Budget)
	setString(&l.PartnerContact, req.PartnerContact)

	if req.Source != nil {
		l.Source = *req.Source
	}
	if req.Status != nil {
		l.Status = *req.Status
	}

	ts := now.UnixMilli()
	l.UpdatedAt = &ts

	return l
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
