package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if fields := validateTag(&req); len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	tag, err := s.tags.Create(c.Request.Context(), currentUserID(c), req.Name, req.Color)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTagResponse(tag))
}

func (s *Server) handleListTags(c *gin.Context) {
	list, err := s.tags.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTagResponses(list))
}

func (s *Server) handleListTagContents(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := s.contents.ListByTag(c.Request.Context(), currentUserID(c), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContentResponses(list))
}

func (s *Server) handleUpdateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if fields := validateTag(&req); len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	tag, err := s.tags.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req.Name, req.Color)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTagResponse(tag))
}

func (s *Server) handleDeleteTag(c *gin.Context) {
	if err := s.tags.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
