package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vkarpins/stashkeeper/internal/server/models"
	"github.com/vkarpins/stashkeeper/internal/server/services"
)

func contentInputFromRequest(req *contentRequest) *services.ContentInput {
	return &services.ContentInput{
		FolderID:    req.FolderID,
		Kind:        models.ContentKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		URL:         req.URL,
		MimeType:    req.MimeType,
		SizeBytes:   req.SizeBytes,
		TagNames:    req.Tags,
		TagIDs:      req.TagIDs,
	}
}

func (s *Server) handleCreateContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if fields := validateContent(&req); len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	content, uploadURL, err := s.contents.Create(c.Request.Context(), currentUserID(c), contentInputFromRequest(&req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contentEnvelope{
		Content:   toContentResponse(content),
		UploadURL: uploadURL,
	})
}

func (s *Server) handleGetContent(c *gin.Context) {
	content, downloadURL, err := s.contents.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contentEnvelope{
		Content:     toContentResponse(content),
		DownloadURL: downloadURL,
	})
}

func (s *Server) handleUpdateContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if fields := validateContent(&req); len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	content, err := s.contents.Update(c.Request.Context(), currentUserID(c), c.Param("id"), contentInputFromRequest(&req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contentEnvelope{Content: toContentResponse(content)})
}

func (s *Server) handleSetFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if err := s.contents.SetFavorite(c.Request.Context(), currentUserID(c), c.Param("id"), req.Favorite); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteContent(c *gin.Context) {
	if err := s.contents.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRecentContents(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := s.contents.ListRecent(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContentResponses(list))
}

func (s *Server) handleMostViewed(c *gin.Context) {
	list, err := s.contents.MostViewed(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContentResponses(list))
}

func (s *Server) handleSearch(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		badRequest(c, map[string]string{"q": "required"})
		return
	}
	full := c.Query("full") == "true"
	limit, offset := pageParams(c)
	list, err := s.contents.Search(c.Request.Context(), currentUserID(c), term, full, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContentResponses(list))
}
