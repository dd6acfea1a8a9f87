package middleware

import "github.com/gin-gonic/gin"

// Middleware 全局中间件加载器，和业务路由一起交给 Server.Run
type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

func (m *Middleware) Load(g *gin.Engine) {
	g.Use(gin.Recovery())
	g.Use(RequestId())
	g.Use(Logger)
	g.Use(Secure())
	g.Use(Options())
}
