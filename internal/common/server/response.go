package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构体
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Msg: "success", Data: data})
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Msg: "created", Data: data})
}

// Accepted 202：请求已受理但有需人工跟进的告警（如对账不一致）。
func Accepted(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusAccepted, Response{Code: http.StatusAccepted, Msg: msg, Data: data})
}

// Fail 失败响应
func Fail(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, Response{Code: httpStatus, Msg: msg})
}

// Abort 失败并中断后续 handler（中间件用）。
func Abort(c *gin.Context, httpStatus int, msg string) {
	c.AbortWithStatusJSON(httpStatus, Response{Code: httpStatus, Msg: msg})
}
