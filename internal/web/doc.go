// Package web is goBoard's HTTP front end: a gin router serving server-rendered pages
// for the job board. Every page request runs through middleware.Session and
// middleware.Guard before its handler, so handlers can assume the route policy holds.
package web
