package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pingme/domain/chat"
	apperrors "pingme/errors"
	"pingme/services"
)

// maxMediaBytes caps uploaded attachments.
const maxMediaBytes = 16 << 20

type Handlers struct {
	auth     services.IAuthService
	chat     services.IChatService
	statuses services.IStatusService
}

func NewHandlers(
	authService services.IAuthService,
	chatService services.IChatService,
	statusService services.IStatusService,
) *Handlers {
	return &Handlers{auth: authService, chat: chatService, statuses: statusService}
}

func (h *Handlers) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Register(req.Email, req.Username, req.Password)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handlers) ListConversations(c *gin.Context) {
	conversations, err := h.chat.GetConversations(CallerID(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *Handlers) ListMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	messages, err := h.chat.GetMessages(c.Request.Context(), CallerID(c), conversationID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage accepts either a JSON body for text messages or a multipart
// form with a "media" file for attachments.
func (h *Handlers) SendMessage(c *gin.Context) {
	cmd := chat.SendMessageCommand{SenderID: CallerID(c)}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		cmd.ReceiverID = c.PostForm("receiverId")
		cmd.Content = c.PostForm("content")

		if files := form.File["media"]; len(files) > 0 {
			file, err := files[0].Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable media"})
				return
			}
			defer file.Close()

			data, err := io.ReadAll(io.LimitReader(file, maxMediaBytes+1))
			if err != nil || len(data) > maxMediaBytes {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "media too large"})
				return
			}
			cmd.Media = data
		}
	} else {
		var req struct {
			ReceiverID string `json:"receiverId" binding:"required"`
			Content    string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ReceiverID = req.ReceiverID
		cmd.Content = req.Content
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), cmd)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handlers) MarkAsRead(c *gin.Context) {
	var req struct {
		MessageIDs []uuid.UUID `json:"messageIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.chat.MarkAsRead(c.Request.Context(), chat.MarkAsReadCommand{
		ReaderID:   CallerID(c),
		MessageIDs: req.MessageIDs,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) DeleteMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	err = h.chat.DeleteMessage(c.Request.Context(), chat.DeleteMessageCommand{
		CallerID:  CallerID(c),
		MessageID: messageID,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) React(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.React(c.Request.Context(), chat.ReactCommand{
		ReactorID: CallerID(c),
		MessageID: messageID,
		Emoji:     req.Emoji,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handlers) SearchMessages(c *gin.Context) {
	var req struct {
		Terms string `form:"q" binding:"required"`
		Limit int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.chat.Search(c.Request.Context(), chat.SearchCommand{
		CallerID: CallerID(c),
		Terms:    req.Terms,
		Limit:    req.Limit,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// CreateStatus accepts a JSON body for text statuses or a multipart form
// with a "media" file.
func (h *Handlers) CreateStatus(c *gin.Context) {
	cmd := chat.CreateStatusCommand{OwnerID: CallerID(c)}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if files := form.File["media"]; len(files) > 0 {
			file, err := files[0].Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable media"})
				return
			}
			defer file.Close()

			data, err := io.ReadAll(io.LimitReader(file, maxMediaBytes+1))
			if err != nil || len(data) > maxMediaBytes {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "media too large"})
				return
			}
			cmd.Media = data
		}
	} else {
		var req struct {
			Content string `json:"content" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.Content = req.Content
	}

	status, err := h.statuses.CreateStatus(c.Request.Context(), cmd)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

func (h *Handlers) ListStatuses(c *gin.Context) {
	statuses, err := h.statuses.GetStatuses(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

func (h *Handlers) ViewStatus(c *gin.Context) {
	statusID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status id"})
		return
	}

	status, err := h.statuses.ViewStatus(c.Request.Context(), CallerID(c), statusID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handlers) DeleteStatus(c *gin.Context) {
	statusID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status id"})
		return
	}

	err = h.statuses.DeleteStatus(c.Request.Context(), CallerID(c), statusID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// abortWith maps a service error to its HTTP status. Internal details never
// leak: anything that maps to a 500 comes back with a generic body.
func abortWith(c *gin.Context, err error) {
	code := apperrors.MapToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		c.JSON(code, gin.H{"error": "internal error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
