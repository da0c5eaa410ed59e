package middleware

import "github.com/labstack/echo/v4"

const actorKey = "actor_id"

const demoActorID uint = 1

// ActorMiddleware resolves the acting user for downstream handlers.
// Session/JWT auth lives outside this service; for now every request runs as
// the demo actor.
func ActorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(actorKey, demoActorID)
			return next(c)
		}
	}
}

func ActorID(c echo.Context) uint {
	if id, ok := c.Get(actorKey).(uint); ok {
		return id
	}
	return 0
}
