package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCreateFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if fields := validateFolder(&req); len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	folder, err := s.folders.Create(c.Request.Context(), currentUserID(c), req.Name, req.Description, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFolderResponse(folder))
}

func (s *Server) handleListRootFolders(c *gin.Context) {
	roots, err := s.folders.ListRoots(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolderResponses(roots))
}

func (s *Server) handleFolderTree(c *gin.Context) {
	tree, err := s.folders.Tree(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolderTreeResponse(tree))
}

func (s *Server) handleGetFolder(c *gin.Context) {
	folder, err := s.folders.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolderResponse(folder))
}

func (s *Server) handleListChildren(c *gin.Context) {
	children, err := s.folders.ListChildren(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolderResponses(children))
}

func (s *Server) handleFolderCounts(c *gin.Context) {
	counts, err := s.folders.Counts(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, folderCountsResponse{
		ContentCount:   counts.ContentCount,
		SubfolderCount: counts.SubfolderCount,
	})
}

func (s *Server) handleListFolderContents(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := s.contents.ListByFolder(c.Request.Context(), currentUserID(c), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContentResponses(list))
}

func (s *Server) handleUpdateFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if fields := validateFolder(&req); len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	folder, err := s.folders.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req.Name, req.Description, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolderResponse(folder))
}

func (s *Server) handleDeleteFolder(c *gin.Context) {
	if err := s.folders.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pageParams reads limit/offset query parameters, leaving clamping to the
// service layer.
func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
