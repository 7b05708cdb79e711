package httpapi

import (
	"net/mail"
	"strings"

	"github.com/vkarpins/stashkeeper/internal/server/models"
)

const (
	maxTitleLen       = 200
	maxNameLen        = 100
	maxDescriptionLen = 1000
	minPasswordLen    = 8
)

// The validators below each return a field -> message map; an empty map means
// the input is acceptable.

func validateRegister(req *registerRequest) map[string]string {
	fields := map[string]string{}
	if name := strings.TrimSpace(req.Username); name == "" {
		fields["username"] = "required"
	} else if len(name) > maxNameLen {
		fields["username"] = "too long"
	}
	validateEmail(fields, req.Email)
	validatePassword(fields, "password", req.Password)
	return fields
}

func validateLogin(req *loginRequest) map[string]string {
	fields := map[string]string{}
	validateEmail(fields, req.Email)
	if req.Password == "" {
		fields["password"] = "required"
	}
	return fields
}

func validateEmail(fields map[string]string, email string) {
	if email == "" {
		fields["email"] = "required"
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "not a valid email address"
	}
}

func validatePassword(fields map[string]string, field, password string) {
	if password == "" {
		fields[field] = "required"
	} else if len(password) < minPasswordLen {
		fields[field] = "must be at least 8 characters"
	}
}

func validateFolder(req *folderRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	} else if len(req.Name) > maxNameLen {
		fields["name"] = "too long"
	}
	if len(req.Description) > maxDescriptionLen {
		fields["description"] = "too long"
	}
	return fields
}

func validateContent(req *contentRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "required"
	} else if len(req.Title) > maxTitleLen {
		fields["title"] = "too long"
	}
	if len(req.Description) > maxDescriptionLen {
		fields["description"] = "too long"
	}

	kind := models.ContentKind(req.Kind)
	if !kind.Valid() {
		fields["kind"] = "must be one of TEXT, LINK, FILE"
		return fields
	}
	switch kind {
	case models.ContentText:
		if req.Body == "" {
			fields["body"] = "required for TEXT contents"
		}
	case models.ContentLink:
		if req.URL == "" {
			fields["url"] = "required for LINK contents"
		} else if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
			fields["url"] = "must be an http(s) URL"
		}
	case models.ContentFile:
		if req.MimeType == "" {
			fields["mime_type"] = "required for FILE contents"
		}
		if req.SizeBytes < 0 {
			fields["size_bytes"] = "must not be negative"
		}
	}
	return fields
}

func validateTag(req *tagRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	} else if len(req.Name) > maxNameLen {
		fields["name"] = "too long"
	}
	return fields
}
