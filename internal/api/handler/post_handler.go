package handler

import (
	"Pulseboard/internal/api/dto"
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/response"
	"Pulseboard/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

// PostHandler 帖子的点查与管理接口
type PostHandler struct {
	storeSvc service.PostStoreService
}

func NewPostHandler(storeSvc service.PostStoreService) *PostHandler {
	return &PostHandler{
		storeSvc: storeSvc,
	}
}

func toPostResp(posts []*model.Post) ([]*dto.PostResp, error) {
	resp := make([]*dto.PostResp, 0, len(posts))
	if err := copier.Copy(&resp, &posts); err != nil {
		return nil, err
	}
	return resp, nil
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, service.ErrParamInvalid)
		return 0, false
	}
	return id, true
}

func (s *PostHandler) ListPosts(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}
	posts, err := s.storeSvc.ListPosts(c.Request.Context(), query.Limit)
	s.writeList(c, posts, err)
}

func (s *PostHandler) ListByPlatform(c *gin.Context) {
	posts, err := s.storeSvc.ListByPlatform(c.Request.Context(), c.Param("platform"))
	s.writeList(c, posts, err)
}

func (s *PostHandler) writeList(c *gin.Context, posts []*model.Post, err error) {
	data, cpErr := toPostResp(posts)
	if cpErr != nil {
		response.Error(c, cpErr)
		return
	}
	response.Success(c, &dto.PostListResp{Success: err == nil, Count: len(data), Data: data})
}

func (s *PostHandler) GetPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := s.storeSvc.GetPost(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	var resp dto.PostResp
	if err = copier.Copy(&resp, post); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &resp)
}

func (s *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req dto.PostPatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	post, err := s.storeSvc.UpdatePost(c.Request.Context(), id, req.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}
	var resp dto.PostResp
	if err = copier.Copy(&resp, post); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &resp)
}

func (s *PostHandler) DeletePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := s.storeSvc.DeletePost(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *PostHandler) DeleteAll(c *gin.Context) {
	n, err := s.storeSvc.DeleteAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.DeleteAllResp{Success: true, Deleted: n})
}
